package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rexysans/websocket-kanban-vitest-playwright-2026/domain"
)

// Store owns the canonical task collection for the board. All mutations go
// through its methods and are serialized behind the mutex, so no two
// read-modify-write sequences can interleave. State is volatile: the process
// restart starts from an empty board.
type Store struct {
	mu    sync.Mutex
	tasks []domain.Task

	now   func() time.Time
	newID func() string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create validates the draft and, on success, appends a new task with a fresh
// id and creation timestamp. The collection is unchanged on failure.
func (s *Store) Create(d domain.Draft) (domain.Task, error) {
	t := d.Build()
	if err := domain.Validate(t); err != nil {
		return domain.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.newID()
	t.CreatedAt = s.now().UTC()
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Update merges the patch into the stored task and re-validates the merged
// result before replacing it. A patch that would blank a required field or
// smuggle in an out-of-enum value is rejected whole.
func (s *Store) Update(id string, p domain.Patch) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, &domain.NotFoundError{ID: id}
	}
	merged := p.Apply(s.tasks[i])
	if merged.Attachments == nil {
		merged.Attachments = []domain.Attachment{}
	}
	if err := domain.Validate(merged); err != nil {
		return domain.Task{}, err
	}
	s.tasks[i] = merged
	return merged, nil
}

// Move changes only the task's status; every other field is untouched.
func (s *Store) Move(id, status string) (domain.Task, error) {
	if !domain.ValidStatus(status) {
		return domain.Task{}, &domain.ValidationError{Message: "Invalid status"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, &domain.NotFoundError{ID: id}
	}
	s.tasks[i].Status = status
	return s.tasks[i], nil
}

// Remove deletes the task unconditionally.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return &domain.NotFoundError{ID: id}
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

// List returns a copy of the collection in insertion order. The copy does not
// reflect later mutations.
func (s *Store) List() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Reset clears the collection. Administrative operation, used for test
// isolation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
}

// indexOf must be called with the mutex held.
func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
