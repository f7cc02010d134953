package server

import (
	"log"

	"campusnest/internal/featureflags"
	"campusnest/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler streams the caller's notifications.
// Authentication is handled by route middleware and userID is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			log.Printf("WebSocket Notification: Failed to register user %d: %v", uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})
}

// WebSocketChatHandler streams new messages of one chat to its participants.
// Participation is checked before the upgrade so outsiders get a plain 403.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, _ := conn.Locals("userID").(uint)
		chatID, _ := conn.Locals("chatID").(uint)

		client, err := s.chatHub.Register(chatID, uid, conn)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to register user %d on chat %d: %v", uid, chatID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.chatHub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		uid := currentUserID(c)
		if !s.featureFlags.Enabled(featureflags.RealtimeChat, uid) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Realtime chat", "disabled"))
		}
		if s.chatHub == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Realtime chat is unavailable",
				"code":  models.CodeInternal,
			})
		}

		chatID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		if _, err := s.chatService.GetChatForUser(c.UserContext(), chatID, uid); err != nil {
			return s.respondServiceError(c, err)
		}

		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("chatID", chatID)
		return upgrade(c)
	}
}
