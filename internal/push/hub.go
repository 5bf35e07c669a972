package push

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Conn is the subset of a websocket connection the hub uses. Satisfied
// by *websocket.Conn.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// client serializes writes to one connection; websocket connections do
// not support concurrent writers.
type client struct {
	conn Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks websocket connections per user and pushes SLA alerts to
// them. Delivery is best-effort; an offline user is not an error.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[Conn]*client
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[Conn]*client),
		logger:  logger,
	}
}

// Register adds a connection for a user.
func (h *Hub) Register(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[Conn]*client)
	}
	h.clients[userID][conn] = &client{conn: conn}
}

// Unregister removes a connection for a user.
func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[userID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// SendToUser pushes a JSON payload to every open connection of the user.
// Write failures close the offending connection; the send as a whole
// still succeeds when at least the payload was serializable.
func (h *Hub) SendToUser(userID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.logger.Debug("no websocket connections for user", zap.String("user_id", userID))
		return nil
	}

	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.logger.Warn("websocket write failed",
				zap.String("user_id", userID),
				zap.Error(err))
			_ = c.conn.Close()
			h.Unregister(userID, c.conn)
		}
	}
	return nil
}

// Handler returns the fiber handler for the alerts websocket endpoint.
// The user id arrives as a query parameter; authentication happened
// upstream at the gateway.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		userID := conn.Query("user_id")
		if userID == "" {
			_ = conn.Close()
			return
		}
		h.Register(userID, conn)
		defer h.Unregister(userID, conn)

		// Read loop holds the connection open and observes close frames.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
