// Package capture is the quick-capture inbox: short notes created over the
// hybrid-auth API and synced to clients through mutation broadcasts.
package capture

import (
	"context"
	"errors"
	"time"
)

const maxTextChars = 4000

// Validation and lookup errors.
var (
	ErrNotFound  = errors.New("capture not found")
	ErrEmptyText = errors.New("capture text is empty")
	ErrTooLong   = errors.New("capture text too long")
)

// Capture is one stored note. CreatedBy is a user ID for bearer-authenticated
// requests and empty for anonymous API-key requests.
type Capture struct {
	ID        string
	Text      string
	CreatedBy string
	CreatedAt time.Time
}

// Store abstracts capture persistence.
type Store interface {
	Insert(ctx context.Context, c Capture) error
	List(ctx context.Context, limit int) ([]Capture, error)
	Delete(ctx context.Context, id string) (bool, error)
}
