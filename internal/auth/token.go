package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"task-keeper/internal/domain"
)

// DefaultTokenTTL is the session lifetime when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// ErrMissingSecret is returned when the signing secret is empty.
var ErrMissingSecret = errors.New("token signing secret is required")

// TokenIssuer mints and verifies HS256 session tokens. Tokens are stateless:
// rotating the secret is the only way to revoke the ones already issued.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

func NewTokenIssuer(secret string, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	t := &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs a token for the principal valid for the configured TTL.
func (t *TokenIssuer) Issue(principalID int64) (domain.SessionToken, error) {
	if principalID <= 0 {
		return domain.SessionToken{}, fmt.Errorf("invalid principal id %d", principalID)
	}

	now := t.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(principalID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return domain.SessionToken{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.SessionToken{
		Token:       signed,
		PrincipalID: principalID,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Verify checks the signature and expiry of token and returns the principal id.
// Failures wrap domain.ErrTokenMalformed, domain.ErrTokenSignatureInvalid or
// domain.ErrTokenExpired.
func (t *TokenIssuer) Verify(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, classifyTokenError(err)
	}
	if !parsed.Valid {
		return 0, domain.ErrTokenMalformed
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject", domain.ErrTokenMalformed)
	}
	return id, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", domain.ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	}
}
