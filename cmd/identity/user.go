package identity

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// User is one registered account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	AvatarURL    *string
	Settings     json.RawMessage
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// NewID returns a new ULID string (26 chars, lexicographically sortable).
func NewID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
