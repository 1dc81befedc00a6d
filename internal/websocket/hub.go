package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-study-assistant-be/internal/dto"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/apperror"

	"github.com/google/uuid"
)

// WatchFunc blocks delivering session states until ctx is done. A nil
// session means it was deleted.
type WatchFunc func(ctx context.Context, sessionID uuid.UUID, callback func(*dto.SessionResponse)) error

// Hub fans session updates out to every connected client of that session.
// One watcher runs per session while it has at least one client.
type Hub struct {
	clients  map[uuid.UUID][]*Client
	watchers map[uuid.UUID]context.CancelFunc

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	watch  WatchFunc
	logger logger.ILogger
}

func NewHub(watch WatchFunc, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID][]*Client),
		watchers:   make(map[uuid.UUID]context.CancelFunc),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		watch:      watch,
		logger:     log,
	}
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Run serves registrations until ctx is done, then stops every watcher.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for id, cancel := range h.watchers {
			cancel()
			delete(h.watchers, id)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			if _, ok := h.watchers[client.SessionID]; !ok {
				wctx, cancel := context.WithCancel(ctx)
				h.watchers[client.SessionID] = cancel
				go h.watchSession(wctx, client.SessionID)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.SessionID]
			for i, c := range clients {
				if c == client {
					h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.SessionID]) == 0 {
				delete(h.clients, client.SessionID)
				if cancel, ok := h.watchers[client.SessionID]; ok {
					cancel()
					delete(h.watchers, client.SessionID)
				}
				h.logger.Info("Hub", "Session has no more clients", map[string]interface{}{"session_id": client.SessionID})
			}
			h.mu.Unlock()
		}
	}
}

// Clients reports how many clients follow the session.
func (h *Hub) Clients(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) watchSession(ctx context.Context, sessionID uuid.UUID) {
	err := h.watch(ctx, sessionID, func(session *dto.SessionResponse) {
		msg := dto.SessionUpdateMessage{Type: dto.UpdateSession, Session: session}
		if session == nil {
			msg.Type = dto.UpdateDeleted
		}
		h.broadcast(sessionID, msg)
	})
	if err != nil && ctx.Err() == nil {
		h.logger.Warn("Hub", "Session watcher stopped", map[string]interface{}{"session_id": sessionID, "error": err})
		h.broadcast(sessionID, dto.StreamMessage{
			Type:    dto.StreamError,
			Kind:    string(apperror.KindOf(err)),
			Message: "session updates unavailable",
		})
	}
}

// Slow clients miss frames instead of stalling the session.
func (h *Hub) broadcast(sessionID uuid.UUID, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode update", map[string]interface{}{"error": err})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"session_id": sessionID})
		}
	}
}
