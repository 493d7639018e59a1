package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hub/cmd/internal/settings"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// Handler exposes the raw-body webhook endpoints. Signature verification
// happens against the exact bytes received; parsing comes strictly after.
type Handler struct {
	log      *slog.Logger
	ingestor *Ingestor
	secrets  settings.Store
	now      func() time.Time
}

// NewHandler constructs a Handler. now may be nil.
func NewHandler(log *slog.Logger, ingestor *Ingestor, secrets settings.Store, now func() time.Time) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Handler{log: log, ingestor: ingestor, secrets: secrets, now: now}
}

// Register mounts the webhook routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/slack/commands", h.handleSlackCommand)
	mux.HandleFunc("POST /webhooks/slack/events", h.handleSlackEvents)
	mux.HandleFunc("POST /webhooks/github", h.handleGitHub)
}

// readRawBody captures the unparsed request bytes the verifiers need.
func (h *Handler) readRawBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return body, true
}

func (h *Handler) verifySlack(w http.ResponseWriter, r *http.Request, body []byte) bool {
	secret, err := h.secrets.Get(r.Context(), settings.KeySlackSigningSecret)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			h.log.Error("webhook.slack.secret.fail", "err", err)
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}

	ts := r.Header.Get("X-Slack-Request-Timestamp")
	sig := r.Header.Get("X-Slack-Signature")
	if err := VerifySlack(secret, ts, body, sig, h.now()); err != nil {
		h.log.Info("webhook.slack.reject", "reason", err, "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (h *Handler) handleSlackCommand(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readRawBody(w, r)
	if !ok {
		return
	}
	if !h.verifySlack(w, r, body) {
		return
	}

	sc, err := ParseSlackSlashCommand(body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	cmd, err := h.ingestor.IngestSlashCommand(r.Context(), h.now(), sc)
	if err != nil {
		h.log.Error("webhook.slack.command.fail", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Slash commands want a synchronous ephemeral response, well inside
	// Slack's ~3s budget.
	text := "Nothing to do: the command was empty."
	if cmd != nil {
		text = "Got it, queued: " + cmd.Text
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	})
}

func (h *Handler) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readRawBody(w, r)
	if !ok {
		return
	}
	if !h.verifySlack(w, r, body) {
		return
	}

	var env slackEventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch env.Type {
	case slackTypeURLVerification:
		writeJSON(w, http.StatusOK, map[string]string{"challenge": env.Challenge})
		return

	case slackTypeEventCallback:
		var ev slackInnerEvent
		if err := json.Unmarshal(env.Event, &ev); err != nil || ev.Type != slackEventAppMention {
			break
		}
		_, err := h.ingestor.IngestSlackMention(r.Context(), h.now(), SlackMention{
			Text:    ev.Text,
			UserID:  ev.User,
			Channel: ev.Channel,
			TS:      ev.TS,
			TeamID:  env.TeamID,
		})
		if err != nil {
			h.log.Error("webhook.slack.mention.fail", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleGitHub(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readRawBody(w, r)
	if !ok {
		return
	}

	secret, err := h.secrets.Get(r.Context(), settings.KeyGitHubWebhookSecret)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			h.log.Error("webhook.github.secret.fail", "err", err)
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := VerifyGitHub(secret, body, r.Header.Get("X-Hub-Signature-256")); err != nil {
		h.log.Info("webhook.github.reject", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	comment, relevant := parseGitHubComment(r.Header.Get("X-GitHub-Event"), body)
	if relevant {
		if _, err := h.ingestor.IngestGitHubComment(r.Context(), h.now(), comment); err != nil {
			h.log.Error("webhook.github.comment.fail", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
