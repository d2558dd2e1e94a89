package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task-keeper/internal/domain"
	"task-keeper/internal/repository"
)

// TokenVerifier validates a session token and returns its principal id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// TokenGuard turns an Authorization header into an authenticated principal.
// Every rejection wraps domain.ErrUnauthenticated together with the reason,
// which is meant for logs only.
type TokenGuard struct {
	tokens TokenVerifier
	users  repository.UserRepository
}

func NewTokenGuard(tokens TokenVerifier, users repository.UserRepository) *TokenGuard {
	return &TokenGuard{tokens: tokens, users: users}
}

var errMissingBearer = errors.New("missing bearer token")

// Authorize resolves the principal for a header of the form "Bearer <token>".
// Storage failures other than a missing principal are returned unwrapped so
// they surface as internal errors rather than rejections.
func (g *TokenGuard) Authorize(ctx context.Context, header string) (*domain.User, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, errMissingBearer)
	}

	id, err := g.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	user, err := g.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: principal %d no longer exists", domain.ErrUnauthenticated, id)
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}

	return sanitizeUser(user), nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

type principalKey struct{}

// WithPrincipal stores the authenticated user in ctx.
func WithPrincipal(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFrom returns the authenticated user stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(principalKey{}).(*domain.User)
	return user, ok && user != nil
}
