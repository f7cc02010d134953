package server

import (
	"campusnest/internal/models"

	"github.com/gofiber/fiber/v2"
)

// StartChatRequest is the body of POST /api/chats.
type StartChatRequest struct {
	ListingID uint `json:"listingId"`
}

// SendMessageRequest is the body of POST /api/chats/:id/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// StartChat handles POST /api/chats
// @Summary Open the chat about a listing
// @Description Returns the caller's chat with the listing's seller, creating it on first contact.
// @Tags chats
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body StartChatRequest true "Listing to ask about"
// @Success 200 {object} models.Chat
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /chats [post]
func (s *Server) StartChat(c *fiber.Ctx) error {
	var req StartChatRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if req.ListingID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("listingId is required"))
	}

	chat, err := s.chatService.StartChat(c.UserContext(), req.ListingID, currentUserID(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(publicChat(*chat))
}

// GetChats handles GET /api/chats
// @Summary The caller's chats
// @Description Every chat where the caller is the buyer or the seller.
// @Tags chats
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Chat
// @Router /chats [get]
func (s *Server) GetChats(c *fiber.Ctx) error {
	chats, err := s.chatService.ListChatsForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	out := make([]models.Chat, len(chats))
	for i, chat := range chats {
		out[i] = publicChat(chat)
	}
	return c.JSON(out)
}

// GetChat handles GET /api/chats/:id
// @Summary Chat detail
// @Tags chats
// @Security BearerAuth
// @Produce json
// @Param id path int true "Chat ID"
// @Success 200 {object} models.Chat
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /chats/{id} [get]
func (s *Server) GetChat(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	chat, err := s.chatService.GetChatForUser(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(publicChat(*chat))
}

// GetMessages handles GET /api/chats/:id/messages
// @Summary Chat transcript
// @Description Messages in send order. Pass after=<message id> to poll for newer messages only.
// @Tags chats
// @Security BearerAuth
// @Produce json
// @Param id path int true "Chat ID"
// @Param after query int false "Return messages after this message ID"
// @Success 200 {array} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Router /chats/{id}/messages [get]
func (s *Server) GetMessages(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	after := c.QueryInt("after", 0)
	if after < 0 {
		after = 0
	}

	if _, err := s.chatService.GetChatForUser(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondServiceError(c, err)
	}

	messages, err := s.chatService.ListMessages(c.UserContext(), id, uint(after))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// SendMessage handles POST /api/chats/:id/messages
// @Summary Send a message
// @Description A buyer's message notifies the seller. Seller replies notify nobody.
// @Tags chats
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Chat ID"
// @Param request body SendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /chats/{id}/messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req SendMessageRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.chatService.AppendMessage(c.UserContext(), id, currentUserID(c), req.Content)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetAdminChats handles GET /api/admin/chats
// @Summary All chats with transcripts
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Chat
// @Router /admin/chats [get]
func (s *Server) GetAdminChats(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	chats, err := s.chatService.ListAllChats(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(chats)
}

// publicChat hides both participants' private fields. The caller's own
// account details are served by /users/me.
func publicChat(chat models.Chat) models.Chat {
	if chat.Buyer != nil {
		buyer := chat.Buyer.PublicProfile()
		chat.Buyer = &buyer
	}
	if chat.Seller != nil {
		seller := chat.Seller.PublicProfile()
		chat.Seller = &seller
	}
	if chat.Listing != nil {
		listing := publicListing(*chat.Listing)
		chat.Listing = &listing
	}
	return chat
}
