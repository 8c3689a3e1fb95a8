package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/bizdir-backend/pkg/logger"
)

const sendBufferSize = 256

// Client is one websocket session of an account. An account may hold several.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// Hub tracks live sessions per account and pushes notifications to them.
type Hub struct {
	clients map[uint][]*Client

	// unbuffered so nothing can be queued once Run has returned
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Debug("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}

	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}

	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	close(client.Send)

	logger.Debug("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
	logger.Info("WebSocket hub stopped", nil)
}

// Register adds a session. After the hub has stopped the session is closed
// straight away so its write pump exits.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a session and closes it. Sessions of a stopped hub were
// already closed by the shutdown.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// SendNotificationToUser delivers message to every live session of the
// account. Offline accounts are skipped; the notification row stays unread.
func (h *Hub) SendNotificationToUser(userID uint, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal websocket message", err, nil)
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			// slow consumer; drop the session rather than block the caller
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"user_id": userID,
			})
		}
	}
	return nil
}

type clientMessage struct {
	Type string `json:"type"`
}

// HandleClientMessage answers application-level pings. Everything else a
// client sends is ignored.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Debug("Ignoring malformed client message", map[string]interface{}{
			"user_id": client.UserID,
		})
		return
	}
	if msg.Type == "ping" {
		_ = h.SendNotificationToUser(client.UserID, map[string]string{"type": "pong"})
	}
}
