package notifications

import (
	"context"
	"log"

	"campusnest/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Hub fans user notifications out to that user's websocket connections.
type Hub struct {
	reg    *registry
	logger *observability.WSLogger
}

// NewHub creates a new Hub instance for managing notifications.
func NewHub() *Hub {
	return &Hub{
		reg:    newRegistry("notifications"),
		logger: observability.NewWSLogger("notifications"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register adds a connection for userID. Fails when connection limits are reached.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	client := NewClient(h, conn, userID, userID)
	if err := h.reg.add(client); err != nil {
		return nil, err
	}
	h.logger.LogConnect(context.Background(), userID, UserChannel(userID))
	return client, nil
}

// UnregisterClient removes the client. Safe to call more than once.
func (h *Hub) UnregisterClient(client *Client) {
	if h.reg.remove(client) {
		h.logger.LogDisconnect(context.Background(), client.UserID, UserChannel(client.UserID), "closed")
	}
}

// Broadcast sends message to all connections for userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.reg.broadcast(userID, []byte(message))
}

// IsOnline reports whether a user has at least one live connection.
func (h *Hub) IsOnline(userID uint) bool {
	return h.reg.count(userID) > 0
}

// StartWiring subscribes to notifications:user:* and forwards each payload
// to the matching user's connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	h.logger.LogLifecycle(ctx, "wiring_started", map[string]interface{}{"redis": n.Enabled()})
	return n.StartUserSubscriber(ctx, func(channel, payload string) {
		userID, ok := parseChannelID(channel, userChannelPrefix)
		if !ok {
			log.Printf("invalid notification channel: %s", channel)
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	closed := h.reg.closeAll()
	h.logger.LogLifecycle(ctx, "shutdown", map[string]interface{}{"closed": closed})
	return nil
}
