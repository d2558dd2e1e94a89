package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task-keeper/internal/domain"
	"task-keeper/internal/repository"
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hashed string) bool
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(principalID int64) (domain.SessionToken, error)
}

// UserService describes registration and credential login.
type UserService interface {
	Register(ctx context.Context, email, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (domain.SessionToken, error)
	IssueToken(ctx context.Context, user *domain.User) (domain.SessionToken, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewUserService(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *userService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateIdentity
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	// the repository reports a lost uniqueness race as ErrDuplicateIdentity
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

// Authenticate checks credentials. An unknown email and a wrong password both
// return ErrInvalidCredentials after the same bcrypt work.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if !s.hasher.Verify(ctx, password, hash) || user == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, email, password string) (domain.SessionToken, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return domain.SessionToken{}, err
	}
	return s.IssueToken(ctx, user)
}

func (s *userService) IssueToken(_ context.Context, user *domain.User) (domain.SessionToken, error) {
	if user == nil {
		return domain.SessionToken{}, domain.ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID)
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
