package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oggyb/irlobby/internal/core/model"
	"github.com/oggyb/irlobby/internal/logger"
	"github.com/oggyb/irlobby/internal/observability"
)

const writeWait = 10 * time.Second

// Event is the payload written to notification sockets.
type Event struct {
	Type string                  `json:"type"`
	Item *model.NotificationItem `json:"item,omitempty"`
}

// client serialises writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub maintains active notification sockets, one room per user.
type Hub struct {
	rooms map[uint64]map[*client]struct{}
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[uint64]map[*client]struct{})}
}

// add registers a connection in the user's room.
func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.info.UserID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.info.UserID] = room
	}
	room[c] = struct{}{}
}

// remove drops a connection; reports whether it was still registered.
func (h *Hub) remove(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.info.UserID]
	if !ok {
		return false
	}
	if _, ok := room[c]; !ok {
		return false
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.info.UserID)
	}
	return true
}

// Connections returns the number of open sockets of a user.
func (h *Hub) Connections(userID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Push sends a notification to every connection of the user. Connections that
// fail to accept the write are closed and dropped.
func (h *Hub) Push(userID uint64, item model.NotificationItem) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[userID]))
	for c := range h.rooms[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	payload, _ := json.Marshal(Event{Type: "notification", Item: &item})
	for _, c := range clients {
		if err := c.write(payload); err != nil {
			logger.Warn("websocket write error", "user_id", userID, "conn_id", c.info.ConnID, "err", err)
			_ = c.conn.Close()
			if h.remove(c) {
				observability.DecWSActive()
			}
			observability.IncWSEvent("ws_error")
			continue
		}
		observability.IncWSEvent("push")
	}
}
