// internal/websocket/hub.go
package websocket

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tracks active streaming sessions. Sessions share no stream state;
// the hub only lists them and closes them all on shutdown.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client // Channel for registering clients
	unregister chan *Client // Channel for unregistering clients
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run serves registrations until Shutdown, then closes every remaining client.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("session registered", slog.String("session", client.ID), slog.Int("active", n))

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("session unregistered", slog.String("session", client.ID), slog.Int("active", n))

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				client.Close(websocket.CloseGoingAway, "server shutting down")
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client. It returns false once the hub has shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; a no-op after shutdown.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Shutdown closes all sessions and waits for Run to return.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

// Count returns the number of active sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionInfo describes an active session.
type SessionInfo struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Active lists active sessions, oldest first.
func (h *Hub) Active() []SessionInfo {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].ConnectedAt.Before(clients[j].ConnectedAt) })
	out := make([]SessionInfo, len(clients))
	for i, c := range clients {
		out[i] = SessionInfo{ID: c.ID, RemoteAddr: c.RemoteAddr, ConnectedAt: c.ConnectedAt}
	}
	return out
}
