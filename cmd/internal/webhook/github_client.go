package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"hub/cmd/internal/settings"
)

const githubAPIBase = "https://api.github.com"

// GitHubReplier posts comments through the GitHub REST API. The token is
// fetched from settings on every call so operators can rotate it live.
type GitHubReplier struct {
	http     *http.Client
	settings settings.Store
	baseURL  string
}

// NewGitHubReplier constructs a replier. baseURL overrides the GitHub API
// endpoint in tests; empty means the public API.
func NewGitHubReplier(store settings.Store, baseURL string) *GitHubReplier {
	if baseURL == "" {
		baseURL = githubAPIBase
	}
	return &GitHubReplier{
		http:     &http.Client{Timeout: replyTimeout},
		settings: store,
		baseURL:  baseURL,
	}
}

// Reply posts body as a comment on repo#number. With no token configured it
// is a silent no-op: the reply integration is optional.
func (r *GitHubReplier) Reply(ctx context.Context, repo string, number int, body string) error {
	token, err := r.settings.Get(ctx, settings.KeyGitHubAPIToken)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			return nil
		}
		return err
	}

	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments", r.baseURL, repo, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("github comment: unexpected status %d", resp.StatusCode)
	}
	return nil
}
