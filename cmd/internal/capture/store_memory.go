package capture

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is the in-memory Store used when no database is configured
// (dev mode) and by unit tests.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Capture
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Capture)}
}

func (s *MemoryStore) Insert(_ context.Context, c Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[c.ID] = c
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Capture, 0, len(s.rows))
	for _, c := range s.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return false, nil
	}
	delete(s.rows, id)
	return true, nil
}
