package websocket

import (
	"ats-analyzer/internal/lib/sl"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisDeleted   = "analysis.deleted"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is the envelope pushed to a user's connected clients.
type Event struct {
	Type    string `json:"event_type"`
	Payload any    `json:"payload,omitempty"`
}

type Hub struct {
	clients    map[string]map[*Client]bool
	mu         sync.RWMutex
	log        *slog.Logger
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		log:        log.With(slog.String("component", "websocket.hub")),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		}
	}
}

// Add hands the client to the running hub. It reports false once the hub
// has shut down.
func (h *Hub) Add(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Remove detaches the client. It returns immediately after shutdown.
func (h *Hub) Remove(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	h.log.Debug("client registered", slog.String("user_id", client.UserID))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if userClients, ok := h.clients[client.UserID]; ok {
		if _, ok := userClients[client]; ok {
			delete(userClients, client)
			close(client.send)
			if len(userClients) == 0 {
				delete(h.clients, client.UserID)
			}
			h.log.Debug("client unregistered", slog.String("user_id", client.UserID))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, userClients := range h.clients {
		for client := range userClients {
			close(client.send)
		}
		delete(h.clients, userID)
	}
}

// ConnectedClients reports how many connections the user currently holds.
func (h *Hub) ConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) PublishEvent(userID string, eventData []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if userClients, ok := h.clients[userID]; ok {
		for client := range userClients {
			select {
			case client.send <- eventData:
			default:
				h.log.Warn("client send buffer is full, dropping message", slog.String("user_id", userID))
			}
		}
	}
}

// Publish encodes the event and hands it to every client of the user.
func (h *Hub) Publish(userID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to encode event", slog.String("type", event.Type), sl.Err(err))
		return
	}
	h.PublishEvent(userID, data)
}
