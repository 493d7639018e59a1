// Package apikey persists long-lived API keys for legacy/device clients.
//
// Only the SHA-256 digest of a key is ever stored; the raw value is shown
// once at generation time and never logged.
package apikey

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no key matches a presented digest.
var ErrNotFound = errors.New("api key not found")

// Key is one stored API key. KeyHash is the SHA-256 hex digest of the raw key.
type Key struct {
	ID        string
	Name      string
	KeyHash   string
	CreatedAt time.Time
}

// Store abstracts API key persistence.
type Store interface {
	// Count returns the number of stored keys. The bootstrap endpoint is
	// unguarded only while this is zero.
	Count(ctx context.Context) (int, error)

	// Insert stores a new key.
	Insert(ctx context.Context, k Key) error

	// FindByHash looks up a key by its digest.
	FindByHash(ctx context.Context, hash string) (Key, error)

	// List returns key metadata (never includes raw keys; hashes are for
	// internal use and must not reach API responses).
	List(ctx context.Context) ([]Key, error)
}
