package settings

import (
	"context"
	"testing"
)

func TestSeedSkipsExistingAndEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, KeySlackSigningSecret, "operator-set"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	err := Seed(ctx, store, map[string]string{
		KeySlackSigningSecret:  "env-value",
		KeyGitHubWebhookSecret: "gh-secret",
		KeyGitHubAPIToken:      "",
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if v, _ := store.Get(ctx, KeySlackSigningSecret); v != "operator-set" {
		t.Fatalf("seed overwrote operator value: %q", v)
	}
	if v, _ := store.Get(ctx, KeyGitHubWebhookSecret); v != "gh-secret" {
		t.Fatalf("missing seeded value: %q", v)
	}
	if _, err := store.Get(ctx, KeyGitHubAPIToken); err != ErrNotFound {
		t.Fatalf("empty value was seeded: %v", err)
	}
}
