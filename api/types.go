package api

import (
	"context"

	"github.com/rexysans/websocket-kanban-vitest-playwright-2026/domain"
)

// Store is the authoritative task collection the router mutates.
type Store interface {
	Create(d domain.Draft) (domain.Task, error)
	Update(id string, p domain.Patch) (domain.Task, error)
	Move(id, status string) (domain.Task, error)
	Remove(id string) error
	List() []domain.Task
	Reset()
}

// Mirror receives a copy of every broadcast snapshot for out-of-process
// consumers. Implementations must not block the mutation path on failure.
type Mirror interface {
	Publish(ctx context.Context, tasks []domain.Task)
}
