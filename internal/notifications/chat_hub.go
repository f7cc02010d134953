package notifications

import (
	"context"
	"strconv"

	"campusnest/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// ChatHub is keyed by chat id: every participant watching a chat receives
// its new messages.
type ChatHub struct {
	reg    *registry
	logger *observability.WSLogger
}

// NewChatHub creates a new ChatHub instance
func NewChatHub() *ChatHub {
	return &ChatHub{
		reg:    newRegistry("chat"),
		logger: observability.NewWSLogger("chat"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// Register subscribes a participant's connection to chatID. Participation
// is checked by the caller.
func (h *ChatHub) Register(chatID, userID uint, conn *websocket.Conn) (*Client, error) {
	client := NewClient(h, conn, userID, chatID)
	if err := h.reg.add(client); err != nil {
		return nil, err
	}
	h.logger.LogConnect(context.Background(), userID, ChatChannel(chatID))
	return client, nil
}

// UnregisterClient removes the client. Safe to call more than once.
func (h *ChatHub) UnregisterClient(client *Client) {
	if h.reg.remove(client) {
		h.logger.LogDisconnect(context.Background(), client.UserID, ChatChannel(client.Room), "closed")
	}
}

// BroadcastToChat sends payload to every connection watching chatID.
func (h *ChatHub) BroadcastToChat(chatID uint, payload string) int {
	return h.reg.broadcast(chatID, []byte(payload))
}

// Watchers returns the number of connections watching chatID.
func (h *ChatHub) Watchers(chatID uint) int {
	return h.reg.count(chatID)
}

// StartWiring subscribes to chat:* and forwards payloads to the chat's watchers.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	h.logger.LogLifecycle(ctx, "wiring_started", map[string]interface{}{"redis": n.Enabled()})
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		chatID, ok := parseChannelID(channel, chatChannelPrefix)
		if !ok {
			h.logger.LogError(ctx, channel, strconv.ErrSyntax, "invalid_channel")
			return
		}
		h.BroadcastToChat(chatID, payload)
	})
}

// Shutdown closes every connection.
func (h *ChatHub) Shutdown(ctx context.Context) error {
	closed := h.reg.closeAll()
	h.logger.LogLifecycle(ctx, "shutdown", map[string]interface{}{"closed": closed})
	return nil
}
