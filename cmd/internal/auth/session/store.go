package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no session matches.
	ErrNotFound = errors.New("session not found")

	// ErrRotationConflict is returned when a conditional rotation finds the
	// stored digest already changed: a concurrent refresh won the race, or the
	// session was deleted. The caller must treat the presented token as stale.
	ErrRotationConflict = errors.New("session rotation conflict")
)

// Row is one active refresh-token lineage.
type Row struct {
	ID               string
	UserID           string
	DeviceID         *string
	RefreshTokenHash string
	ExpiresAt        time.Time
	CreatedAt        time.Time
	LastUsedAt       time.Time
}

// Store abstracts session persistence.
//
// Rotate must be atomic with respect to concurrent refresh attempts on the
// same session: of two refreshes presenting the same digest, exactly one may
// succeed; the other observes ErrRotationConflict.
type Store interface {
	// Create inserts a new session row.
	Create(ctx context.Context, row Row) error

	// GetByID loads a session row by ID.
	GetByID(ctx context.Context, id string) (Row, error)

	// Rotate swaps the stored refresh digest and expiry in place, conditional
	// on the current digest still being oldHash (compare-and-swap).
	Rotate(ctx context.Context, now time.Time, id, oldHash, newHash string, newExpiry time.Time) error

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteAllForUser removes every session owned by userID.
	DeleteAllForUser(ctx context.Context, userID string) error
}
