// Package notifications provides real-time delivery of notifications and chat
// messages over Redis pub/sub and WebSockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notifications:user:"
	chatChannelPrefix = "chat:"
)

// Event types pushed to WebSocket clients.
const (
	EventNotification = "notification"
	EventChatMessage  = "message"
)

// Event is the envelope written to WebSocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals the event to the string published on Redis.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(b), nil
}

// Notifier publishes events into Redis channels. A nil client turns every
// call into a no-op so the API keeps working without Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether a Redis client is attached.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishUser sends a payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishChatMessage sends a payload to the channel of one chat.
func (n *Notifier) PublishChatMessage(ctx context.Context, chatID uint, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, ChatChannel(chatID), payload).Err()
}

// StartUserSubscriber subscribes to every user channel.
func (n *Notifier) StartUserSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.subscribe(ctx, "UserSubscriber", onMessage, userChannelPrefix+"*")
}

// StartChatSubscriber subscribes to every chat channel.
func (n *Notifier) StartChatSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	return n.subscribe(ctx, "ChatSubscriber", onMessage, chatChannelPrefix+"*")
}

// subscribe runs onMessage for each message on patterns until ctx is done.
// A panicking handler is logged and does not stop the loop.
func (n *Notifier) subscribe(ctx context.Context, name string, onMessage func(channel, payload string), patterns ...string) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, patterns...)
	// Wait for the subscription to be confirmed so publishes right after
	// StartWiring are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("psubscribe %v: %w", patterns, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ChatChannel derives the Redis channel name for a chat.
func ChatChannel(chatID uint) string {
	return chatChannelPrefix + strconv.FormatUint(uint64(chatID), 10)
}

// parseChannelID extracts the numeric suffix of prefix<id>.
func parseChannelID(channel, prefix string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
