// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// inbound is a client-to-server control message
type inbound struct {
	Type    string `json:"type"`
	Payload struct {
		ClassID string `json:"classId"`
	} `json:"payload"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub owns all live connections and per-class subscriptions. It is the
// single registry for fan-out state; handlers hold it behind a narrow
// notifier interface so tests can substitute a fake.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*client
	subs     map[string]map[string]struct{} // classID -> set of client IDs
	upgrader websocket.Upgrader
}

func NewHub(allowedOrigin string) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		subs:    make(map[string]map[string]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// HandleWS upgrades the connection and serves the subscribe/unsubscribe
// protocol until the client disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   "client_" + uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 32),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	slog.Info("websocket client connected", "client_id", c.id)

	go c.writePump()

	h.sendTo(c, map[string]interface{}{
		"type":     "connected",
		"clientId": c.id,
	})

	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendTo(c, map[string]interface{}{
				"type":    "error",
				"message": "Invalid message format",
			})
			continue
		}

		switch msg.Type {
		case "subscribe":
			h.Subscribe(c.id, msg.Payload.ClassID)
			h.sendTo(c, map[string]interface{}{
				"type":    "subscribed",
				"classId": msg.Payload.ClassID,
			})
		case "unsubscribe":
			h.Unsubscribe(c.id, msg.Payload.ClassID)
			h.sendTo(c, map[string]interface{}{
				"type":    "unsubscribed",
				"classId": msg.Payload.ClassID,
			})
		case "ping":
			h.sendTo(c, map[string]interface{}{"type": "pong"})
		default:
			h.sendTo(c, map[string]interface{}{
				"type":    "error",
				"message": "Unknown message type: " + msg.Type,
			})
		}
	}
}

// sendTo queues a message for one client, dropping it if the buffer is full
func (h *Hub) sendTo(c *client, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("failed to marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("dropping message for slow client", "client_id", c.id)
	}
}

func (c *client) writePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.Close()
}

// Subscribe adds a client to a class's subscriber set
func (h *Hub) Subscribe(clientID, classID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[classID] == nil {
		h.subs[classID] = make(map[string]struct{})
	}
	h.subs[classID][clientID] = struct{}{}
}

// Unsubscribe removes a client from a class's subscriber set
func (h *Hub) Unsubscribe(clientID, classID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[classID]; ok {
		delete(set, clientID)
		if len(set) == 0 {
			delete(h.subs, classID)
		}
	}
}

// BroadcastToClass delivers a message to every subscriber of the class.
// Best-effort: it never blocks, silently no-ops with no subscribers, and
// drops the message for clients whose send buffer is full.
func (h *Hub) BroadcastToClass(classID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("failed to marshal broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for clientID := range h.subs[classID] {
		c, ok := h.clients[clientID]
		if !ok {
			continue
		}
		select {
		case c.send <- data:
		default:
			slog.Warn("dropping message for slow client", "client_id", clientID)
		}
	}
}

// SubscriberCount returns the number of live subscribers for a class
func (h *Hub) SubscriberCount(classID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[classID])
}

// drop removes a client and all of its subscriptions
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	for classID, set := range h.subs {
		delete(set, c.id)
		if len(set) == 0 {
			delete(h.subs, classID)
		}
	}
	h.mu.Unlock()

	close(c.send)
	slog.Info("websocket client disconnected", "client_id", c.id)
}
