package repository

import (
	"context"

	"task-keeper/internal/domain"
)

// TaskRepository persists tasks. Every method other than Init and Create takes
// the owner id and folds it into the storage predicate; a row belonging to
// another owner is reported as domain.ErrNotFound.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	Update(ctx context.Context, ownerID, id int64, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	List(ctx context.Context, ownerID int64, filter domain.TaskFilter) ([]domain.Task, error)
	Count(ctx context.Context, ownerID int64) (int64, error)
}
