package domain

import "errors"

var (
	// ErrInvalidCredentials is returned for any failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateIdentity is returned when the email is already registered.
	ErrDuplicateIdentity = errors.New("identity already exists")

	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")

	// ErrUnauthenticated is the only failure a token-guarded request exposes.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrInputTooLarge is returned when a password exceeds the hashing limit.
	ErrInputTooLarge = errors.New("input too large")
	// ErrInvalidInput signals a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageDisabled is returned by attachment operations without a bucket.
	ErrStorageDisabled = errors.New("object storage not configured")
)
