package api

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/rexysans/websocket-kanban-vitest-playwright-2026/domain"
	"github.com/rexysans/websocket-kanban-vitest-playwright-2026/storage"
)

func newTestLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRouter() (*Router, *Hub, *storage.Store) {
	logger := newTestLogger()
	store := storage.New()
	hub := NewHub(logger)
	return NewRouter(store, hub, nil, logger), hub, store
}

type recvFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// recv pops the next queued frame off a session without a running writer.
func recv(t *testing.T, s *Session) recvFrame {
	t.Helper()
	select {
	case data := <-s.out:
		var f recvFrame
		if err := sonic.Unmarshal(data, &f); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return f
	default:
		t.Fatal("no frame queued")
	}
	return recvFrame{}
}

func recvTasks(t *testing.T, s *Session) []domain.Task {
	t.Helper()
	f := recv(t, s)
	if f.Event != eventTasksSynced {
		t.Fatalf("expected %s frame, got %s", eventTasksSynced, f.Event)
	}
	var tasks []domain.Task
	if err := sonic.Unmarshal(f.Data, &tasks); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return tasks
}

func recvError(t *testing.T, s *Session) string {
	t.Helper()
	f := recv(t, s)
	if f.Event != eventError {
		t.Fatalf("expected %s frame, got %s", eventError, f.Event)
	}
	var p errorPayload
	if err := sonic.Unmarshal(f.Data, &p); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return p.Message
}

func assertNoFrame(t *testing.T, s *Session) {
	t.Helper()
	select {
	case data := <-s.out:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func TestCreateBroadcastsToAllSessions(t *testing.T) {
	router, hub, store := newTestRouter()
	s1 := newSession(nil)
	s2 := newSession(nil)
	hub.Register(s1)
	hub.Register(s2)

	router.HandleFrame(s1, []byte(`{"event":"task:create","data":{"title":"A"}}`))

	for _, s := range []*Session{s1, s2} {
		tasks := recvTasks(t, s)
		if len(tasks) != 1 {
			t.Fatalf("expected 1 task in snapshot, got %d", len(tasks))
		}
		if tasks[0].Title != "A" || tasks[0].Status != domain.StatusTodo ||
			tasks[0].Priority != domain.PriorityMedium || tasks[0].Category != domain.CategoryFeature {
			t.Fatalf("unexpected task in snapshot: %#v", tasks[0])
		}
	}
	if got := store.List(); len(got) != 1 {
		t.Fatalf("expected 1 task in the store, got %d", len(got))
	}
}

func TestValidationErrorGoesToOriginatorOnly(t *testing.T) {
	router, hub, store := newTestRouter()
	s1 := newSession(nil)
	s2 := newSession(nil)
	hub.Register(s1)
	hub.Register(s2)

	router.HandleFrame(s1, []byte(`{"event":"task:create","data":{"title":""}}`))

	if msg := recvError(t, s1); msg != "Title is required and must be a string" {
		t.Fatalf("unexpected error message %q", msg)
	}
	assertNoFrame(t, s2)
	if got := store.List(); len(got) != 0 {
		t.Fatalf("rejected create reached the store: %#v", got)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	router, hub, _ := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	router.HandleFrame(s, []byte(`{"event":"task:update","data":{"title":"B"}}`))

	if msg := recvError(t, s); msg != "Task ID is required" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestUpdateBroadcastsMergedTask(t *testing.T) {
	router, hub, store := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	task, err := store.Create(domain.Draft{Title: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	router.HandleFrame(s, []byte(`{"event":"task:update","data":{"id":"`+task.ID+`","description":"notes"}}`))

	tasks := recvTasks(t, s)
	if tasks[0].Description != "notes" || tasks[0].Title != "A" {
		t.Fatalf("unexpected merged task: %#v", tasks[0])
	}
}

func TestMoveRequiresIDAndStatus(t *testing.T) {
	router, hub, _ := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	router.HandleFrame(s, []byte(`{"event":"task:move","data":{"id":"x"}}`))

	if msg := recvError(t, s); msg != "Task ID and status are required" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestMoveRejectsInvalidStatus(t *testing.T) {
	router, hub, store := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	task, err := store.Create(domain.Draft{Title: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	router.HandleFrame(s, []byte(`{"event":"task:move","data":{"id":"`+task.ID+`","status":"bogus"}}`))

	if msg := recvError(t, s); msg != "Invalid status" {
		t.Fatalf("unexpected error message %q", msg)
	}
	if got := store.List(); got[0].Status != domain.StatusTodo {
		t.Fatalf("status changed after rejected move: %q", got[0].Status)
	}
}

func TestMoveBroadcastsNewStatus(t *testing.T) {
	router, hub, store := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	task, err := store.Create(domain.Draft{Title: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	router.HandleFrame(s, []byte(`{"event":"task:move","data":{"id":"`+task.ID+`","status":"done"}}`))

	tasks := recvTasks(t, s)
	if tasks[0].Status != domain.StatusDone || tasks[0].Title != "A" {
		t.Fatalf("unexpected task after move: %#v", tasks[0])
	}
}

func TestDeleteAcceptsBareStringPayload(t *testing.T) {
	router, hub, store := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	task, err := store.Create(domain.Draft{Title: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	router.HandleFrame(s, []byte(`{"event":"task:delete","data":"`+task.ID+`"}`))

	if tasks := recvTasks(t, s); len(tasks) != 0 {
		t.Fatalf("expected empty snapshot after delete, got %#v", tasks)
	}
}

func TestDeleteAcceptsObjectPayload(t *testing.T) {
	router, hub, store := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	task, err := store.Create(domain.Draft{Title: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	router.HandleFrame(s, []byte(`{"event":"task:delete","data":{"id":"`+task.ID+`"}}`))

	if tasks := recvTasks(t, s); len(tasks) != 0 {
		t.Fatalf("expected empty snapshot after delete, got %#v", tasks)
	}
}

func TestDeleteNotFoundLeavesCollection(t *testing.T) {
	router, hub, store := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	if _, err := store.Create(domain.Draft{Title: "A"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	router.HandleFrame(s, []byte(`{"event":"task:delete","data":"missing"}`))

	if msg := recvError(t, s); msg != "Task not found" {
		t.Fatalf("unexpected error message %q", msg)
	}
	if got := store.List(); len(got) != 1 {
		t.Fatalf("collection length changed: %d", len(got))
	}
}

func TestResyncGoesToSenderOnly(t *testing.T) {
	router, hub, store := newTestRouter()
	s1 := newSession(nil)
	s2 := newSession(nil)
	hub.Register(s1)
	hub.Register(s2)

	if _, err := store.Create(domain.Draft{Title: "A"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	router.HandleFrame(s1, []byte(`{"event":"sync:tasks"}`))

	if tasks := recvTasks(t, s1); len(tasks) != 1 {
		t.Fatalf("expected current snapshot, got %#v", tasks)
	}
	assertNoFrame(t, s2)
	if got := store.List(); len(got) != 1 {
		t.Fatalf("resync mutated the store: %d tasks", len(got))
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	router, hub, _ := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	router.HandleFrame(s, []byte(`{"event":"task:archive","data":{}}`))

	assertNoFrame(t, s)
}

func TestInvalidFrameReportsToSender(t *testing.T) {
	router, hub, _ := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	router.HandleFrame(s, []byte(`{"event":`))

	if msg := recvError(t, s); msg != "Invalid frame" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestEmptySnapshotMarshalsAsArray(t *testing.T) {
	router, hub, _ := newTestRouter()
	s := newSession(nil)
	hub.Register(s)

	router.SendSnapshot(s)

	f := recv(t, s)
	if f.Event != eventTasksSynced {
		t.Fatalf("expected snapshot frame, got %s", f.Event)
	}
	if string(f.Data) != "[]" {
		t.Fatalf("empty snapshot must be [], got %s", f.Data)
	}
}

type panickingStore struct {
	Store
}

func (panickingStore) Create(domain.Draft) (domain.Task, error) { panic("boom") }

func TestHandlerPanicSurfacesGenericError(t *testing.T) {
	logger := newTestLogger()
	hub := NewHub(logger)
	router := NewRouter(panickingStore{storage.New()}, hub, nil, logger)
	s1 := newSession(nil)
	s2 := newSession(nil)
	hub.Register(s1)
	hub.Register(s2)

	router.HandleFrame(s1, []byte(`{"event":"task:create","data":{"title":"A"}}`))

	if msg := recvError(t, s1); msg != "Failed to create task" {
		t.Fatalf("unexpected error message %q", msg)
	}
	assertNoFrame(t, s2)
}

func TestBroadcastSnapshotsAreIdentical(t *testing.T) {
	router, hub, _ := newTestRouter()
	s1 := newSession(nil)
	s2 := newSession(nil)
	hub.Register(s1)
	hub.Register(s2)

	router.HandleFrame(s1, []byte(`{"event":"task:create","data":{"title":"A","priority":"High"}}`))

	f1 := <-s1.out
	f2 := <-s2.out
	if string(f1) != string(f2) {
		t.Fatalf("sessions received different snapshot bytes:\ns1 %s\ns2 %s", f1, f2)
	}
}
