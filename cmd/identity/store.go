package identity

import (
	"context"
	"time"
)

// Store abstracts user persistence.
//
// Implementations must enforce email uniqueness on the normalized form and
// report it as an ErrConflict-kinded error.
type Store interface {
	// Create inserts a new user row.
	Create(ctx context.Context, u User) error

	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id string) (User, error)

	// GetByEmail loads a user by normalized email.
	GetByEmail(ctx context.Context, email string) (User, error)

	// TouchLastLogin updates last_login_at (best-effort bookkeeping).
	TouchLastLogin(ctx context.Context, id string, now time.Time) error
}
