package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store used when no database is configured
// (dev mode) and by unit tests. The mutex gives Rotate the same
// compare-and-swap contract as the Postgres conditional UPDATE.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Row
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Row)}
}

func (s *MemoryStore) Create(_ context.Context, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row.LastUsedAt = row.CreatedAt
	s.rows[row.ID] = row
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return Row{}, ErrNotFound
	}
	return row, nil
}

func (s *MemoryStore) Rotate(_ context.Context, now time.Time, id, oldHash, newHash string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.RefreshTokenHash != oldHash {
		return ErrRotationConflict
	}

	row.RefreshTokenHash = newHash
	row.ExpiresAt = newExpiry
	row.LastUsedAt = now
	s.rows[id] = row
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, id)
	return nil
}

func (s *MemoryStore) DeleteAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.rows {
		if row.UserID == userID {
			delete(s.rows, id)
		}
	}
	return nil
}
