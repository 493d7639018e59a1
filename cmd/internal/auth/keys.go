package auth

import (
	"context"
	"strings"
	"time"

	"hub/cmd/identity"
	"hub/cmd/internal/auth/apikey"
	"hub/cmd/security/token"
)

// KeyService manages API key generation and lookup. It is separate from the
// session Service because API keys are server-to-server credentials with no
// user identity attached.
type KeyService struct {
	keys apikey.Store
}

// NewKeyService constructs a KeyService.
func NewKeyService(keys apikey.Store) *KeyService {
	return &KeyService{keys: keys}
}

// KeyView is the listing projection of a key; hashes never leave the service.
type KeyView struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Count reports how many keys exist. The boundary layer uses this to decide
// whether the generation endpoint is still in bootstrap mode.
func (s *KeyService) Count(ctx context.Context) (int, error) {
	n, err := s.keys.Count(ctx)
	if err != nil {
		return 0, internal(err)
	}
	return n, nil
}

// Generate mints a new API key and stores its digest. The raw key is returned
// exactly once and never persisted.
func (s *KeyService) Generate(ctx context.Context, now time.Time, name string) (raw string, view KeyView, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", KeyView{}, invalidRequest("key name is required")
	}

	raw, hash, err := apikey.Generate()
	if err != nil {
		return "", KeyView{}, internal(err)
	}
	id, err := identity.NewID(now)
	if err != nil {
		return "", KeyView{}, internal(err)
	}

	k := apikey.Key{ID: id, Name: name, KeyHash: hash, CreatedAt: now}
	if err := s.keys.Insert(ctx, k); err != nil {
		return "", KeyView{}, internal(err)
	}
	return raw, KeyView{ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt}, nil
}

// List returns metadata for all stored keys.
func (s *KeyService) List(ctx context.Context) ([]KeyView, error) {
	keys, err := s.keys.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	out := make([]KeyView, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyView{ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt})
	}
	return out, nil
}

// Authenticate resolves a raw API key to its stored record by digest.
// Unknown keys yield the same unauthorized error as any credential failure.
func (s *KeyService) Authenticate(ctx context.Context, rawKey string) (KeyView, error) {
	if rawKey == "" {
		return KeyView{}, unauthorized()
	}
	k, err := s.keys.FindByHash(ctx, token.HashSHA256Hex(rawKey))
	if err != nil {
		if err == apikey.ErrNotFound {
			return KeyView{}, unauthorized()
		}
		return KeyView{}, internal(err)
	}
	return KeyView{ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt}, nil
}
