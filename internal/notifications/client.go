package notifications

import (
	"log"
	"sync"
	"time"

	"campusnest/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames; anything larger is a misbehaving peer.
	maxMessageSize = 4096

	sendBufferSize = 64
)

// WSHub is implemented by hubs that own clients.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is a middleman between one websocket connection and a hub.
type Client struct {
	Hub    WSHub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint
	// Room is the hub key the client is registered under: the user id for
	// Hub, the chat id for ChatHub.
	Room uint

	closeOnce sync.Once
}

// NewClient creates a new Client instance
func NewClient(hub WSHub, conn *websocket.Conn, userID, room uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Room:   room,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// Close closes the send buffer; WritePump then sends a close frame and exits.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// ReadPump consumes inbound frames until the peer goes away, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ReadPump Error (User %d, %s): %v", c.UserID, c.Hub.Name(), err)
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking. A full buffer drops the message
// and queues a notice so the client can re-fetch over HTTP.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		log.Printf("Client %d (%s): Buffer full, dropped message", c.UserID, c.Hub.Name())

		dropNotice := []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)
		select {
		case c.Send <- dropNotice:
		default:
		}
	}
}
