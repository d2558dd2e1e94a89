package repository

import (
	"context"

	"task-keeper/internal/domain"
)

// UserRepository is the user directory. Lookups return domain.ErrNotFound on a
// miss and Create returns domain.ErrDuplicateIdentity on a taken email.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
