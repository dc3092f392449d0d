package chat

import (
	"sync"

	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/rs/zerolog"
)

// Hub owns the room registry: room key -> connected clients. Membership is
// connection-scoped and vanishes with the connection; nothing here is
// persisted.
type Hub struct {
	mu              sync.RWMutex
	rooms           map[string]map[*Client]struct{}
	clientRooms     map[*Client]map[string]struct{}
	identityClients map[auth.Identity]map[*Client]struct{}

	log zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:           make(map[string]map[*Client]struct{}),
		clientRooms:     make(map[*Client]map[string]struct{}),
		identityClients: make(map[auth.Identity]map[*Client]struct{}),
		log:             log,
	}
}

// Add tracks a freshly authenticated connection before it joins any room.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.identityClients[c.Identity] == nil {
		h.identityClients[c.Identity] = make(map[*Client]struct{})
	}
	h.identityClients[c.Identity][c] = struct{}{}
}

func (h *Hub) Join(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
	if h.clientRooms[c] == nil {
		h.clientRooms[c] = make(map[string]struct{})
	}
	h.clientRooms[c][roomID] = struct{}{}
	h.log.Debug().Str("room", roomID).Str("client", c.ID).Int("size", len(h.rooms[roomID])).Msg("client joined room")
}

func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(roomID, c)
}

// leaveLocked reports whether the room lost its last client.
func (h *Hub) leaveLocked(roomID string, c *Client) bool {
	emptied := false
	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
			emptied = true
		}
	}
	if rooms, ok := h.clientRooms[c]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(h.clientRooms, c)
		}
	}
	return emptied
}

// Remove drops the connection from every room and from identity tracking.
// It reports whether the identity still has other live connections, plus the
// rooms that lost their last client so per-room state can be torn down.
func (h *Hub) Remove(c *Client) (bool, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var emptied []string
	for roomID := range h.clientRooms[c] {
		if h.leaveLocked(roomID, c) {
			emptied = append(emptied, roomID)
		}
	}
	delete(h.clientRooms, c)
	if clients, ok := h.identityClients[c.Identity]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.identityClients, c.Identity)
			return false, emptied
		}
		return true, emptied
	}
	return false, emptied
}

func (h *Hub) InRoom(roomID string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][c]
	return ok
}

func (h *Hub) IsOnline(ident auth.Identity) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.identityClients[ident]) > 0
}

// Broadcast delivers data to every client in the room, the sender included.
func (h *Hub) Broadcast(roomID string, data []byte) {
	h.broadcast(roomID, data, nil)
}

// BroadcastExcept delivers data to every client in the room but one.
func (h *Hub) BroadcastExcept(roomID string, data []byte, except *Client) {
	h.broadcast(roomID, data, except)
}

func (h *Hub) broadcast(roomID string, data []byte, except *Client) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if c == except {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.Send <- data:
		case <-c.done:
		default:
			// Slow consumer: drop the message and cut the connection
			// rather than blocking the room.
			h.log.Warn().Str("room", roomID).Str("client", c.ID).Msg("slow consumer, closing")
			c.Close()
		}
	}
}
