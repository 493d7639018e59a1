// Package settings is a small key/value store for runtime configuration
// that can change without a restart, such as webhook signing secrets.
package settings

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeySlackSigningSecret  = "slack_signing_secret"
	KeyGitHubWebhookSecret = "github_webhook_secret"
	KeyGitHubAPIToken      = "github_api_token"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("setting not found")

// Store abstracts settings persistence.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set upserts the value for key.
	Set(ctx context.Context, key, value string) error
}

// Seed writes each non-empty value into the store, skipping keys that
// already hold a value so operator edits survive restarts.
func Seed(ctx context.Context, s Store, values map[string]string) error {
	for key, value := range values {
		if value == "" {
			continue
		}
		if _, err := s.Get(ctx, key); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
