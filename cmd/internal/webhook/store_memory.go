package webhook

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is the in-memory Store used when no database is configured
// (dev mode) and by unit tests.
type MemoryStore struct {
	mu       sync.RWMutex
	commands []Command
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, c Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, c)
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Command, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
