package ws

import (
	"encoding/json"
	"sync"
)

// Client is a single WebSocket connection with user context. One user can
// hold several clients (multiple devices).
type Client struct {
	UserID uint
	Role   string
	Send   chan []byte

	hub    *Hub
	mu     sync.Mutex
	closed bool
}

// trySend queues a frame without blocking. Dropped when the buffer is full
// or the client has already been closed; the closed check shares the mutex
// with Close so the send can never hit a closed channel.
func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Event is the wire envelope pushed to sockets.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub maintains active clients grouped into named rooms ("user_<id>",
// "group_<id>"). Delivery is best-effort: a full send buffer or an empty
// room drops the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]map[string]struct{} // client -> rooms joined
	rooms   map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]map[string]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.clients[c] == nil {
		h.clients[c] = make(map[string]struct{})
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.clients[c] {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] == nil {
		h.clients[c] = make(map[string]struct{})
	}
	h.clients[c][room] = struct{}{}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[c], room)
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if m := h.rooms[room]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.rooms, room)
		}
	}
}

// EmitToRoom publishes an event to every client in the room. No-op when the
// room has no connected clients.
func (h *Hub) EmitToRoom(room, event string, payload interface{}) {
	data, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		return
	}
	h.mu.RLock()
	m := h.rooms[room]
	if m == nil {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
