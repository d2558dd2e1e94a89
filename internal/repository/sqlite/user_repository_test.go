package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-keeper/internal/domain"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{Email: "a@x.com", Username: "a", PasswordHash: "$2a$10$hash"}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, "a", byEmail.Username)
	assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)
}

func TestUserRepository_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetByID(ctx, 999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &domain.User{Email: "a@x.com", Username: "a", PasswordHash: "h1"}
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Email: "a@x.com", Username: "other", PasswordHash: "h2"})
	require.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "h1", got.PasswordHash)
}

func TestUserRepository_ConcurrentDuplicateCreate(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, &domain.User{Email: "race@x.com", Username: "r", PasswordHash: "h"})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateIdentity):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}
