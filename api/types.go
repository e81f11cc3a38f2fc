package api

import (
	"context"

	"kanban-todo/domain"
)

// Storage abstracts task persistence for handlers.
type Storage interface {
	FindAll(ctx context.Context) ([]domain.Task, error)
	Insert(ctx context.Context, t domain.Task) (domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	Delete(ctx context.Context, id string) (domain.Task, error)
	Ping(ctx context.Context) error
}

// Notifier announces a completed task mutation to stream subscribers.
type Notifier interface {
	Notify(ctx context.Context, kind, todoID string)
}
