package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hub/cmd/internal/settings"
)

const (
	testSlackSecret  = "slack-signing-secret"
	testGitHubSecret = "github-webhook-secret"
	testBotHandle    = "claudeassistant"
)

var handlerNow = time.Unix(1724000000, 0)

type recordedBroadcast struct {
	Entity string
	Action string
	ID     string
	Data   json.RawMessage
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []recordedBroadcast
}

func (f *fakeBroadcaster) Broadcast(entity, action, id string, data json.RawMessage, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedBroadcast{entity, action, id, data})
}

func (f *fakeBroadcaster) snapshot() []recordedBroadcast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedBroadcast, len(f.calls))
	copy(out, f.calls)
	return out
}

type handlerFixture struct {
	mux       *http.ServeMux
	store     *MemoryStore
	broadcast *fakeBroadcaster
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()

	secrets := settings.NewMemoryStore()
	ctx := context.Background()
	if err := secrets.Set(ctx, settings.KeySlackSigningSecret, testSlackSecret); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := secrets.Set(ctx, settings.KeyGitHubWebhookSecret, testGitHubSecret); err != nil {
		t.Fatalf("Set: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewMemoryStore()
	broadcast := &fakeBroadcaster{}
	ingestor := NewIngestor(log, store, broadcast, nil, testBotHandle)
	h := NewHandler(log, ingestor, secrets, func() time.Time { return handlerNow })

	mux := http.NewServeMux()
	h.Register(mux)
	return handlerFixture{mux: mux, store: store, broadcast: broadcast}
}

func (f handlerFixture) do(t *testing.T, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(string(body)))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func slackHeaders(body []byte) map[string]string {
	ts := fmt.Sprint(handlerNow.Unix())
	return map[string]string{
		"X-Slack-Request-Timestamp": ts,
		"X-Slack-Signature":         slackSign(testSlackSecret, ts, body),
		"Content-Type":              "application/x-www-form-urlencoded",
	}
}

func TestSlackCommandCreatesAndBroadcasts(t *testing.T) {
	f := newHandlerFixture(t)
	body := []byte("command=%2Fhub&text=deploy+staging&user_id=U1&channel_id=C1&response_url=https%3A%2F%2Fhooks.slack.test%2Fr1")

	rec := f.do(t, http.MethodPost, "/webhooks/slack/commands", body, slackHeaders(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp["response_type"] != "ephemeral" {
		t.Fatalf("response = %+v", resp)
	}

	cmds, _ := f.store.List(context.Background(), 10)
	if len(cmds) != 1 {
		t.Fatalf("stored %d commands", len(cmds))
	}
	c := cmds[0]
	if c.Source != SourceSlack || c.Text != "deploy staging" || c.Status != StatusPending || c.ActorID != "U1" {
		t.Fatalf("command = %+v", c)
	}

	calls := f.broadcast.snapshot()
	if len(calls) != 1 || calls[0].Entity != "webhook_command" || calls[0].Action != "created" || calls[0].ID != c.ID {
		t.Fatalf("broadcasts = %+v", calls)
	}
}

func TestSlackCommandEmptyTextAcksWithoutCommand(t *testing.T) {
	f := newHandlerFixture(t)
	body := []byte("command=%2Fhub&text=&user_id=U1&channel_id=C1")

	rec := f.do(t, http.MethodPost, "/webhooks/slack/commands", body, slackHeaders(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if cmds, _ := f.store.List(context.Background(), 10); len(cmds) != 0 {
		t.Fatalf("stored %d commands", len(cmds))
	}
	if calls := f.broadcast.snapshot(); len(calls) != 0 {
		t.Fatalf("broadcasts = %+v", calls)
	}
}

func TestSlackCommandRejectsBadSignature(t *testing.T) {
	f := newHandlerFixture(t)
	body := []byte("command=%2Fhub&text=deploy")

	headers := slackHeaders(body)
	headers["X-Slack-Signature"] = slackSign("wrong-secret", fmt.Sprint(handlerNow.Unix()), body)
	rec := f.do(t, http.MethodPost, "/webhooks/slack/commands", body, headers)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSlackCommandRejectsStaleTimestamp(t *testing.T) {
	f := newHandlerFixture(t)
	body := []byte("command=%2Fhub&text=deploy")

	ts := fmt.Sprint(handlerNow.Unix() - 301)
	headers := map[string]string{
		"X-Slack-Request-Timestamp": ts,
		"X-Slack-Signature":         slackSign(testSlackSecret, ts, body),
	}
	rec := f.do(t, http.MethodPost, "/webhooks/slack/commands", body, headers)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSlackEventsURLVerification(t *testing.T) {
	f := newHandlerFixture(t)
	body := []byte(`{"type":"url_verification","challenge":"chal-123"}`)

	rec := f.do(t, http.MethodPost, "/webhooks/slack/events", body, slackHeaders(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp["challenge"] != "chal-123" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestSlackEventsAppMention(t *testing.T) {
	f := newHandlerFixture(t)
	body := []byte(`{"type":"event_callback","team_id":"T1","event":{"type":"app_mention","text":"<@U99BOT> restart the worker","user":"U2","channel":"C7","ts":"1724000000.000100"}}`)

	rec := f.do(t, http.MethodPost, "/webhooks/slack/events", body, slackHeaders(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	cmds, _ := f.store.List(context.Background(), 10)
	if len(cmds) != 1 {
		t.Fatalf("stored %d commands", len(cmds))
	}
	if cmds[0].Text != "restart the worker" || cmds[0].ChannelID != "C7" {
		t.Fatalf("command = %+v", cmds[0])
	}
}

func TestSlackEventsMentionOnlyIsAcked(t *testing.T) {
	f := newHandlerFixture(t)
	body := []byte(`{"type":"event_callback","event":{"type":"app_mention","text":"<@U99BOT>","user":"U2","channel":"C7"}}`)

	rec := f.do(t, http.MethodPost, "/webhooks/slack/events", body, slackHeaders(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cmds, _ := f.store.List(context.Background(), 10); len(cmds) != 0 {
		t.Fatalf("stored %d commands", len(cmds))
	}
}

func githubCommentBody(comment string) []byte {
	payload := map[string]any{
		"action": "created",
		"comment": map[string]any{
			"body":     comment,
			"html_url": "https://github.test/o/r/issues/7#issuecomment-1",
			"user":     map[string]string{"login": "octocat"},
		},
		"issue":      map[string]any{"number": 7, "html_url": "https://github.test/o/r/issues/7"},
		"repository": map[string]string{"full_name": "o/r"},
	}
	b, _ := json.Marshal(payload)
	return b
}

func TestGitHubCommentCreatesCommand(t *testing.T) {
	f := newHandlerFixture(t)
	body := githubCommentBody("@claudeassistant please fix the build")

	rec := f.do(t, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-Hub-Signature-256": githubSign(testGitHubSecret, body),
		"X-GitHub-Event":      GitHubEventIssueComment,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	cmds, _ := f.store.List(context.Background(), 10)
	if len(cmds) != 1 {
		t.Fatalf("stored %d commands", len(cmds))
	}
	c := cmds[0]
	if c.Source != SourceGitHub || c.Text != "please fix the build" || c.ActorID != "octocat" || c.ChannelID != "o/r" {
		t.Fatalf("command = %+v", c)
	}

	calls := f.broadcast.snapshot()
	if len(calls) != 1 {
		t.Fatalf("broadcasts = %+v", calls)
	}
	var data map[string]any
	if err := json.Unmarshal(calls[0].Data, &data); err != nil {
		t.Fatalf("bad broadcast data: %v", err)
	}
	if data["repo"] != "o/r" || data["number"] != float64(7) {
		t.Fatalf("broadcast context = %+v", data)
	}
}

func TestGitHubCommentWithoutMentionIsIgnored(t *testing.T) {
	f := newHandlerFixture(t)
	body := githubCommentBody("looks good to me")

	rec := f.do(t, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-Hub-Signature-256": githubSign(testGitHubSecret, body),
		"X-GitHub-Event":      GitHubEventIssueComment,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cmds, _ := f.store.List(context.Background(), 10); len(cmds) != 0 {
		t.Fatalf("stored %d commands", len(cmds))
	}
}

func TestGitHubRejectsBadSignature(t *testing.T) {
	f := newHandlerFixture(t)
	body := githubCommentBody("@claudeassistant deploy")

	rec := f.do(t, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-Hub-Signature-256": githubSign("wrong-secret", body),
		"X-GitHub-Event":      GitHubEventIssueComment,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGitHubIrrelevantEventIsAcked(t *testing.T) {
	f := newHandlerFixture(t)
	body := []byte(`{"action":"opened","repository":{"full_name":"o/r"}}`)

	rec := f.do(t, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-Hub-Signature-256": githubSign(testGitHubSecret, body),
		"X-GitHub-Event":      "pull_request",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cmds, _ := f.store.List(context.Background(), 10); len(cmds) != 0 {
		t.Fatalf("stored %d commands", len(cmds))
	}
}
