package live

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// MessageType represents the type of message pushed to clients.
type MessageType string

const (
	// TypeProps ships an updated prop set for one mounted component.
	TypeProps MessageType = "props"

	// TypeReload asks clients to do a full page reload (dev only).
	TypeReload MessageType = "reload"

	// TypeError shows the build/render error overlay (dev only).
	TypeError MessageType = "error"

	// TypeClear clears the error overlay.
	TypeClear MessageType = "clear"
)

// Message is sent to browsers via WebSocket.
type Message struct {
	Type  MessageType    `json:"type"`
	ID    string         `json:"id,omitempty"`
	Props map[string]any `json:"props,omitempty"`
	Error string         `json:"error,omitempty"`
}

// Hub manages WebSocket connections for prop sync and dev messages.
// Pushes may come from concurrent request handlers; writes to each
// connection are serialized through a per-connection mutex because the
// websocket package allows only one writer at a time.
type Hub struct {
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithCheckOrigin sets the origin check for WebSocket upgrades. The
// default accepts all origins, which is only appropriate in
// development.
func WithCheckOrigin(check func(r *http.Request) bool) HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = check
	}
}

// NewHub creates a new hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleWebSocket handles WebSocket upgrade and connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()

	// Keep connection alive until client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// PushProps ships an updated prop set to the component mounted at the
// host element with the given id.
func (h *Hub) PushProps(id string, props map[string]any) {
	h.broadcast(Message{Type: TypeProps, ID: id, Props: props})
}

// NotifyReload sends a full page reload message to all clients.
func (h *Hub) NotifyReload() {
	h.broadcast(Message{Type: TypeReload})
}

// NotifyError sends an error overlay message to all clients.
func (h *Hub) NotifyError(errMsg string) {
	h.broadcast(Message{Type: TypeError, Error: errMsg})
}

// ClearError clears the error overlay on all clients.
func (h *Hub) ClearError() {
	h.broadcast(Message{Type: TypeClear})
}

// broadcast sends a message to all connected clients.
func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for client, wmu := range h.clients {
		clients[client] = wmu
	}
	h.mu.RUnlock()

	for client, wmu := range clients {
		wmu.Lock()
		err := client.WriteMessage(websocket.TextMessage, data)
		wmu.Unlock()
		if err != nil {
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}
