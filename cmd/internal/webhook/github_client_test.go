package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hub/cmd/internal/settings"
)

func TestGitHubReplierPostsComment(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotBody = payload["body"]
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := settings.NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, settings.KeyGitHubAPIToken, "ghp_test"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	r := NewGitHubReplier(store, srv.URL)
	if err := r.Reply(ctx, "o/r", 7, "Queued."); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	if gotPath != "/repos/o/r/issues/7/comments" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer ghp_test" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotBody != "Queued." {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestGitHubReplierNoTokenIsNoOp(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	r := NewGitHubReplier(settings.NewMemoryStore(), srv.URL)
	if err := r.Reply(context.Background(), "o/r", 7, "Queued."); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if called {
		t.Fatal("request sent without a configured token")
	}
}

func TestGitHubReplierSurfacesAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	store := settings.NewMemoryStore()
	_ = store.Set(context.Background(), settings.KeyGitHubAPIToken, "ghp_test")

	r := NewGitHubReplier(store, srv.URL)
	if err := r.Reply(context.Background(), "o/r", 7, "Queued."); err == nil {
		t.Fatal("expected error")
	}
}
