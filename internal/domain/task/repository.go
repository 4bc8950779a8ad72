package task

import "context"

// Repository persists tasks. Implementations must return NOT_FOUND typed
// errors when a task does not exist or belongs to another owner.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	FindForOwner(ctx context.Context, id uint, ownerID string) (*Task, error)
	ListForOwner(ctx context.Context, ownerID string, filter Filter) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id uint, ownerID string) error
}
