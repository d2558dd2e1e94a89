// Package auth holds the credential hasher and the session token issuer.
package auth

import (
	"context"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"task-keeper/internal/domain"
)

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt. The salt is generated per
// call and embedded in the output, so Verify needs nothing but the hash.
type Hasher struct {
	cost     int
	maxBytes int
	pool     *Pool
	decoy    []byte
}

// NewHasher builds a hasher. maxBytes of zero selects MaxPasswordBytes.
func NewHasher(cost, maxBytes int, pool *Pool) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if maxBytes == 0 {
		maxBytes = MaxPasswordBytes
	}
	if maxBytes < 0 || maxBytes > MaxPasswordBytes {
		return nil, fmt.Errorf("max password bytes %d out of range [1, %d]", maxBytes, MaxPasswordBytes)
	}
	if pool == nil {
		pool = NewPool(0, nil)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate decoy secret: %w", err)
	}
	decoy, err := bcrypt.GenerateFromPassword(secret, cost)
	if err != nil {
		return nil, fmt.Errorf("generate decoy hash: %w", err)
	}

	return &Hasher{
		cost:     cost,
		maxBytes: maxBytes,
		pool:     pool,
		decoy:    decoy,
	}, nil
}

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > h.maxBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", domain.ErrInputTooLarge, h.maxBytes)
	}

	var (
		hash    []byte
		hashErr error
	)
	if err := h.pool.Run(ctx, func() {
		hash, hashErr = bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	}); err != nil {
		return "", err
	}
	if hashErr != nil {
		return "", fmt.Errorf("hash password: %w", hashErr)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hashed. Malformed hashes, oversize
// input and cancellation all yield false. An empty hashed value is checked
// against a decoy hash so callers without an account spend the same time.
func (h *Hasher) Verify(ctx context.Context, plaintext, hashed string) bool {
	target := []byte(hashed)
	usable := hashed != "" && len(plaintext) <= h.maxBytes
	if !usable {
		plaintext = ""
		target = h.decoy
	}

	var err error
	if runErr := h.pool.Run(ctx, func() {
		err = bcrypt.CompareHashAndPassword(target, []byte(plaintext))
	}); runErr != nil {
		return false
	}
	return usable && err == nil
}
