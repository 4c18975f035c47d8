// Package ws pushes order-entry toasts to connected clients over
// WebSockets. Clients subscribe to session ids; every notification emitted
// for a session is broadcast to its subscribers.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Toast is one user-visible notification for an order-entry session.
type Toast struct {
	SessionID string    `json:"sessionId"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is an inbound subscription change from a connected client.
type ClientMessage struct {
	Action   string   `json:"action"`
	Sessions []string `json:"sessions"`
}

// Client is one connected WebSocket consumer.
type Client struct {
	Sessions []string
	Send     chan []byte
}

// Hub tracks connected clients and their session subscriptions.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // session id -> subscribers
	all     map[*Client]struct{}

	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client and subscribes it to its initial sessions.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[c] = struct{}{}
	for _, id := range c.Sessions {
		if h.clients[id] == nil {
			h.clients[id] = make(map[*Client]struct{})
		}
		h.clients[id][c] = struct{}{}
	}
}

// Unregister removes a client from every subscription and closes its Send
// channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[c]; !ok {
		return
	}
	for _, id := range c.Sessions {
		if subs, ok := h.clients[id]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.clients, id)
			}
		}
	}
	delete(h.all, c)
	close(c.Send)
}

// Subscribe adds sessions to an already-registered client.
func (h *Hub) Subscribe(c *Client, sessions []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range sessions {
		if h.clients[id] == nil {
			h.clients[id] = make(map[*Client]struct{})
		}
		h.clients[id][c] = struct{}{}
	}
	c.Sessions = append(c.Sessions, sessions...)
}

// Unsubscribe removes sessions from an already-registered client.
func (h *Hub) Unsubscribe(c *Client, sessions []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[string]struct{}, len(sessions))
	for _, id := range sessions {
		removeSet[id] = struct{}{}
		if subs, ok := h.clients[id]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.clients, id)
			}
		}
	}

	remaining := make([]string, 0, len(c.Sessions))
	for _, id := range c.Sessions {
		if _, rm := removeSet[id]; !rm {
			remaining = append(remaining, id)
		}
	}
	c.Sessions = remaining
}

// ProcessMessage dispatches an inbound subscription change.
func (h *Hub) ProcessMessage(c *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(c, msg.Sessions)
	case "unsubscribe":
		h.Unsubscribe(c, msg.Sessions)
	}
}

// Broadcast delivers a toast to every subscriber of its session. Slow
// clients are skipped rather than blocked on.
func (h *Hub) Broadcast(t Toast) {
	data, err := json.Marshal(t)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal toast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[t.SessionID] {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// Notify implements the notification interface the order-entry session
// calls on submission outcomes.
func (h *Hub) Notify(sessionID, message, kind string) {
	h.Broadcast(Toast{
		SessionID: sessionID,
		Message:   message,
		Kind:      kind,
		Timestamp: time.Now(),
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// SessionSubscriberCount returns the subscribers for one session.
func (h *Hub) SessionSubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
