package api

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/rexysans/websocket-kanban-vitest-playwright-2026/domain"
)

// Router is the protocol state machine: it turns inbound frames into store
// mutations and snapshot broadcasts. Frames are processed one at a time to
// completion, so mutation and broadcast never interleave and every session
// receives the same snapshot bytes.
type Router struct {
	store  Store
	hub    *Hub
	mirror Mirror
	logger *log.Logger

	mu sync.Mutex
	bg context.Context
}

// NewRouter wires the router to its collaborators. mirror may be nil.
func NewRouter(store Store, hub *Hub, mirror Mirror, logger *log.Logger) *Router {
	return &Router{
		store:  store,
		hub:    hub,
		mirror: mirror,
		logger: logger,
		bg:     context.Background(),
	}
}

type updateRequest struct {
	ID string `json:"id"`
	domain.Patch
}

type moveRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HandleFrame processes one inbound WebSocket message from the session.
func (r *Router) HandleFrame(s *Session, raw []byte) {
	m := newFrameMetrics(r.logger)

	var f frame
	if err := sonic.Unmarshal(raw, &f); err != nil {
		m.SetErrorStage("decode_frame")
		m.Log(err)
		r.sendError(s, "Invalid frame")
		return
	}

	kind, ok := commandKinds[f.Event]
	if !ok {
		// Unknown events are ignored, matching the reference client contract.
		r.logger.WithFields(log.Fields{"session": s.id, "event": f.Event}).Warn("ignoring unknown event")
		return
	}
	m.SetEvent(kind.String())

	r.dispatch(s, kind, f.Data, m)
}

// dispatch runs a single typed command to completion. Panics in a handler are
// recovered here and surfaced to the originator as a generic error; the store
// and the other sessions stay unaffected.
func (r *Router) dispatch(s *Session, kind commandKind, data []byte, m *frameMetrics) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(log.Fields{"session": s.id, "event": kind.String()}).Errorf("handler panic: %v", rec)
			m.SetErrorStage("panic")
			r.sendError(s, kind.failureMessage())
		}
		m.Log(nil)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case cmdCreate:
		var draft domain.Draft
		if err := sonic.Unmarshal(data, &draft); err != nil {
			m.SetErrorStage("decode_payload")
			r.sendError(s, kind.failureMessage())
			return
		}
		if _, err := r.store.Create(draft); err != nil {
			m.SetErrorStage("store")
			r.sendError(s, err.Error())
			return
		}
		r.broadcastSnapshot(m)

	case cmdUpdate:
		var req updateRequest
		if err := sonic.Unmarshal(data, &req); err != nil {
			m.SetErrorStage("decode_payload")
			r.sendError(s, kind.failureMessage())
			return
		}
		if req.ID == "" {
			m.SetErrorStage("missing_id")
			r.sendError(s, "Task ID is required")
			return
		}
		if _, err := r.store.Update(req.ID, req.Patch); err != nil {
			m.SetErrorStage("store")
			r.sendError(s, err.Error())
			return
		}
		r.broadcastSnapshot(m)

	case cmdMove:
		var req moveRequest
		if err := sonic.Unmarshal(data, &req); err != nil {
			m.SetErrorStage("decode_payload")
			r.sendError(s, kind.failureMessage())
			return
		}
		if req.ID == "" || req.Status == "" {
			m.SetErrorStage("missing_id")
			r.sendError(s, "Task ID and status are required")
			return
		}
		if _, err := r.store.Move(req.ID, req.Status); err != nil {
			m.SetErrorStage("store")
			r.sendError(s, err.Error())
			return
		}
		r.broadcastSnapshot(m)

	case cmdDelete:
		id, err := decodeTaskID(data)
		if err != nil {
			m.SetErrorStage("decode_payload")
			r.sendError(s, kind.failureMessage())
			return
		}
		if id == "" {
			m.SetErrorStage("missing_id")
			r.sendError(s, "Task ID is required")
			return
		}
		if err := r.store.Remove(id); err != nil {
			m.SetErrorStage("store")
			r.sendError(s, err.Error())
			return
		}
		r.broadcastSnapshot(m)

	case cmdResync:
		// Snapshot to the sender only; nothing mutates, nothing broadcasts.
		r.sendSnapshotLocked(s)
	}
}

// SendSnapshot delivers the current snapshot to a single session. Used for
// the catch-up snapshot at connect time.
func (r *Router) SendSnapshot(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendSnapshotLocked(s)
}

// BroadcastSnapshot pushes the current snapshot to every registered session.
// Exposed for the administrative reset surface.
func (r *Router) BroadcastSnapshot() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastSnapshot(nil)
}

func (r *Router) sendSnapshotLocked(s *Session) {
	data, err := r.snapshotFrame()
	if err != nil {
		r.logger.Errorf("marshal snapshot: %v", err)
		return
	}
	s.enqueue(data)
}

// broadcastSnapshot captures the post-mutation collection and fans it out to
// all sessions, the originator included. The full list ships every time; the
// single full-state push is what keeps every client's view identical.
func (r *Router) broadcastSnapshot(m *frameMetrics) {
	tasks := r.store.List()
	data, err := sonic.Marshal(outFrame{Event: eventTasksSynced, Data: tasks})
	if err != nil {
		r.logger.Errorf("marshal snapshot: %v", err)
		return
	}
	r.hub.Broadcast(data)
	if r.mirror != nil {
		r.mirror.Publish(r.bg, tasks)
	}
	if m != nil {
		m.SetTasksBroadcast(len(tasks))
	}
}

func (r *Router) snapshotFrame() ([]byte, error) {
	return sonic.Marshal(outFrame{Event: eventTasksSynced, Data: r.store.List()})
}

func (r *Router) sendError(s *Session, message string) {
	data, err := sonic.Marshal(outFrame{Event: eventError, Data: errorPayload{Message: message}})
	if err != nil {
		r.logger.Errorf("marshal error frame: %v", err)
		return
	}
	s.enqueue(data)
}

// decodeTaskID accepts both the bare-string delete payload the reference
// client sends and an {"id": ...} object.
func decodeTaskID(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	var id string
	if err := sonic.Unmarshal(data, &id); err == nil {
		return id, nil
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := sonic.Unmarshal(data, &req); err != nil {
		return "", err
	}
	return req.ID, nil
}
