package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-keeper/internal/auth"
	"task-keeper/internal/domain"
	"task-keeper/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int64]*domain.User
	nextID int64

	getErr error
	// hideOnLookup makes GetByEmail miss so Create hits the uniqueness check,
	// as when a concurrent registration wins the race.
	hideOnLookup bool
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*domain.User{}}
}

func (f *fakeUsers) Init(context.Context) error { return nil }

func (f *fakeUsers) Create(_ context.Context, u *domain.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return 0, domain.ErrDuplicateIdentity
		}
	}
	f.nextID++
	u.ID = f.nextID
	cpy := *u
	f.byID[u.ID] = &cpy
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.hideOnLookup {
		return nil, domain.ErrNotFound
	}
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) remove(id int64) {
	f.mu.Lock()
	delete(f.byID, id)
	f.mu.Unlock()
}

type authFixture struct {
	users  *fakeUsers
	tokens *auth.TokenIssuer
	svc    UserService
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	hasher, err := auth.NewHasher(bcrypt.MinCost, 0, auth.NewPool(2, nil))
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	users := newFakeUsers()
	return authFixture{
		users:  users,
		tokens: tokens,
		svc:    NewUserService(users, hasher, tokens),
	}
}

func TestRegister_ReturnsSanitizedPrincipal(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), "  A@X.com ", "a", "pw1")
	require.NoError(t, err)
	assert.Positive(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "a", user.Username)
	assert.Empty(t, user.PasswordHash)

	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw1")))
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "", "a", "pw")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.Register(ctx, "a@x.com", " ", "pw")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.Register(ctx, "a@x.com", "a", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.Register(ctx, "a@x.com", "a", strings.Repeat("p", 100))
	require.ErrorIs(t, err, domain.ErrInputTooLarge)
}

func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, "a@x.com", "a", "pw1")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "A@x.com", "other", "pw2")
	require.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	stored, err := f.users.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Username)
	_, err = f.svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
}

func TestRegister_LostRaceIsDuplicate(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a@x.com", "a", "pw1")
	require.NoError(t, err)

	f.users.hideOnLookup = true
	_, err = f.svc.Register(ctx, "a@x.com", "b", "pw2")
	require.ErrorIs(t, err, domain.ErrDuplicateIdentity)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a@x.com", "a", "pw1")
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, "a@x.com", "wrong")
	_, unknownEmail := f.svc.Login(ctx, "nobody@x.com", "pw1")

	require.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	verified []string
}

func (c *countingHasher) Verify(ctx context.Context, plaintext, hashed string) bool {
	c.mu.Lock()
	c.verified = append(c.verified, hashed)
	c.mu.Unlock()
	return c.PasswordHasher.Verify(ctx, plaintext, hashed)
}

func TestLogin_UnknownEmailDoesSameHashWork(t *testing.T) {
	t.Parallel()
	hasher, err := auth.NewHasher(bcrypt.MinCost, 0, auth.NewPool(2, nil))
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	counting := &countingHasher{PasswordHasher: hasher}
	svc := NewUserService(newFakeUsers(), counting, tokens)
	ctx := context.Background()

	_, err = svc.Register(ctx, "a@x.com", "a", "pw1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@x.com", "pw1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.Len(t, counting.verified, 2)
	assert.NotEmpty(t, counting.verified[0])
	assert.Empty(t, counting.verified[1])
}

func TestLogin_IssuesTokenForPrincipal(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "a@x.com", "a", "pw1")
	require.NoError(t, err)

	tok, err := f.svc.Login(ctx, "A@X.COM", "pw1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, tok.PrincipalID)
	assert.Equal(t, time.Hour, tok.ExpiresAt.Sub(tok.IssuedAt))

	id, err := f.tokens.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestAuthenticate_StorageFailureIsNotMasked(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.users.getErr = errors.New("disk on fire")

	_, err := f.svc.Authenticate(context.Background(), "a@x.com", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestGetByID_Sanitizes(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "a@x.com", "a", "pw1")
	require.NoError(t, err)

	got, err := f.svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PasswordHash)

	_, err = f.svc.GetByID(ctx, 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
