package notifications

import (
	"errors"
	"sync"

	"campusnest/internal/observability"
)

const (
	// Max connections per room key.
	maxConnsPerRoom = 12
	// Max total connections per hub.
	maxTotalConns = 10000
)

var (
	errRoomLimit  = errors.New("connection limit reached for this room")
	errTotalLimit = errors.New("server connection limit reached")
	errShutdown   = errors.New("hub is shutting down")
)

// registry maps a room key to its set of clients.
type registry struct {
	hub    string
	mu     sync.RWMutex
	rooms  map[uint]map[*Client]struct{}
	total  int
	closed bool
}

func newRegistry(hub string) *registry {
	return &registry{hub: hub, rooms: make(map[uint]map[*Client]struct{})}
}

func (r *registry) add(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errShutdown
	}
	if r.total >= maxTotalConns {
		return errTotalLimit
	}
	set, ok := r.rooms[c.Room]
	if !ok {
		set = make(map[*Client]struct{})
		r.rooms[c.Room] = set
	}
	if len(set) >= maxConnsPerRoom {
		return errRoomLimit
	}
	set[c] = struct{}{}
	r.total++
	observability.WebSocketConnections.WithLabelValues(r.hub).Inc()
	return nil
}

func (r *registry) remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.rooms[c.Room]
	if !ok {
		return false
	}
	if _, exists := set[c]; !exists {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.rooms, c.Room)
	}
	r.total--
	observability.WebSocketConnections.WithLabelValues(r.hub).Dec()
	return true
}

func (r *registry) broadcast(room uint, data []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.rooms[room]
	for c := range set {
		c.TrySend(data)
	}
	return len(set)
}

func (r *registry) count(room uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// closeAll closes every client and refuses further registrations.
func (r *registry) closeAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, set := range r.rooms {
		for c := range set {
			c.Close()
			n++
		}
	}
	observability.WebSocketConnections.WithLabelValues(r.hub).Sub(float64(r.total))
	r.rooms = make(map[uint]map[*Client]struct{})
	r.total = 0
	r.closed = true
	return n
}
