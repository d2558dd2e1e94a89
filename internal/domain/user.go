package domain

import "time"

// User represents an authenticated principal of the system.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionToken is a signed, stateless credential minted at login.
type SessionToken struct {
	Token       string
	PrincipalID int64
	IssuedAt    time.Time
	ExpiresAt   time.Time
}
