package capture

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"hub/cmd/identity"
)

const defaultListLimit = 100

// Broadcaster fans a mutation out to connected sync clients.
type Broadcaster interface {
	Broadcast(entity, action, id string, data json.RawMessage, now time.Time)
}

// Service validates and persists captures and broadcasts their mutations.
type Service struct {
	log       *slog.Logger
	store     Store
	broadcast Broadcaster
}

// NewService constructs a Service.
func NewService(log *slog.Logger, store Store, broadcast Broadcaster) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{log: log, store: store, broadcast: broadcast}
}

// Create stores a new capture. createdBy may be empty for API-key callers.
func (s *Service) Create(ctx context.Context, now time.Time, text, createdBy string) (Capture, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Capture{}, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > maxTextChars {
		return Capture{}, ErrTooLong
	}

	id, err := identity.NewID(now)
	if err != nil {
		return Capture{}, err
	}
	c := Capture{ID: id, Text: text, CreatedBy: createdBy, CreatedAt: now}
	if err := s.store.Insert(ctx, c); err != nil {
		return Capture{}, err
	}

	data, _ := json.Marshal(map[string]any{
		"id":        c.ID,
		"text":      c.Text,
		"createdBy": c.CreatedBy,
		"createdAt": c.CreatedAt.UTC(),
	})
	s.broadcast.Broadcast("capture", "created", c.ID, data, now)
	return c, nil
}

// List returns the newest captures.
func (s *Service) List(ctx context.Context) ([]Capture, error) {
	return s.store.List(ctx, defaultListLimit)
}

// Delete removes a capture and broadcasts the deletion. Deleting an absent
// capture returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, now time.Time, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.broadcast.Broadcast("capture", "deleted", id, nil, now)
	return nil
}
