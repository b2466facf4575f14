package api

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Hub tracks the sessions currently eligible to receive broadcasts. There is
// no limit on concurrent sessions and nothing is persisted.
type Hub struct {
	logger *log.Logger

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger:   logger,
		sessions: make(map[*Session]struct{}),
	}
}

// Register adds the session to the broadcast set. Called on connect, before
// any mutation the client might trigger.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()
	h.logger.WithFields(log.Fields{"session": s.id, "sessions": n}).Info("client connected")
}

// Unregister removes the session and shuts it down. Idempotent; removing an
// unknown session is a no-op.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	n := len(h.sessions)
	h.mu.Unlock()
	s.close()
	if ok {
		h.logger.WithFields(log.Fields{"session": s.id, "sessions": n}).Info("client disconnected")
	}
}

// Broadcast enqueues the frame to every session registered at the moment of
// the call. Delivery is per-session fire-and-forget; one unresponsive client
// cannot block the others.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()
	for _, s := range targets {
		s.enqueue(data)
	}
}

// Len reports the current number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
