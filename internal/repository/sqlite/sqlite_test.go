package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"task-keeper/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewTaskRepository(db).Init(ctx))
	return db
}

func seedUser(t *testing.T, db *sql.DB, email string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, Username: email, PasswordHash: "hash"}
	_, err := NewUserRepository(db).Create(context.Background(), user)
	require.NoError(t, err)
	return user
}
