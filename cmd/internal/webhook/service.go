package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hub/cmd/identity"
)

const replyTimeout = 10 * time.Second

// Broadcaster fans a mutation out to connected sync clients.
type Broadcaster interface {
	Broadcast(entity, action, id string, data json.RawMessage, now time.Time)
}

// Replier posts an acknowledgement comment back to a GitHub issue or PR.
type Replier interface {
	Reply(ctx context.Context, repo string, number int, body string) error
}

// Ingestor runs the shared pipeline: filter event, extract command text,
// persist a pending Command, broadcast its creation.
type Ingestor struct {
	log       *slog.Logger
	store     Store
	broadcast Broadcaster
	replier   Replier
	botHandle string
}

// NewIngestor constructs an Ingestor. replier may be nil when no GitHub
// reply integration is configured.
func NewIngestor(log *slog.Logger, store Store, broadcast Broadcaster, replier Replier, botHandle string) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{
		log:       log,
		store:     store,
		broadcast: broadcast,
		replier:   replier,
		botHandle: botHandle,
	}
}

// IngestSlashCommand handles a verified slash command. A nil command with a
// nil error means there was no text to act on.
func (i *Ingestor) IngestSlashCommand(ctx context.Context, now time.Time, sc SlackSlashCommand) (*Command, error) {
	text := strings.TrimSpace(sc.Text)
	if text == "" {
		return nil, nil
	}

	cmd, err := i.create(ctx, now, Command{
		Source:    SourceSlack,
		ActorID:   sc.UserID,
		ChannelID: sc.ChannelID,
		SourceURL: sc.ResponseURL,
		Text:      text,
	}, map[string]any{
		"channel": sc.ChannelID,
		"user":    sc.UserID,
		"command": sc.Command,
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

// IngestSlackMention handles a verified app_mention event callback.
func (i *Ingestor) IngestSlackMention(ctx context.Context, now time.Time, m SlackMention) (*Command, error) {
	text := ExtractSlackCommand(m.Text)
	if text == "" {
		return nil, nil
	}

	return i.create(ctx, now, Command{
		Source:    SourceSlack,
		ActorID:   m.UserID,
		ChannelID: m.Channel,
		Text:      text,
	}, map[string]any{
		"channel": m.Channel,
		"user":    m.UserID,
		"ts":      m.TS,
		"team":    m.TeamID,
	})
}

// IngestGitHubComment handles a verified created-comment event. When a reply
// integration is configured, an acknowledgement comment is posted back
// asynchronously; its failure is logged, never surfaced to the webhook.
func (i *Ingestor) IngestGitHubComment(ctx context.Context, now time.Time, c GitHubComment) (*Command, error) {
	text := ExtractGitHubCommand(c.Body, i.botHandle)
	if text == "" {
		return nil, nil
	}

	cmd, err := i.create(ctx, now, Command{
		Source:    SourceGitHub,
		ActorID:   c.ActorLogin,
		ChannelID: c.Repo,
		SourceURL: c.HTMLURL,
		Text:      text,
	}, map[string]any{
		"repo":   c.Repo,
		"number": c.Number,
		"actor":  c.ActorLogin,
	})
	if err != nil {
		return nil, err
	}

	if i.replier != nil && c.Repo != "" && c.Number > 0 {
		go i.replyAck(c.Repo, c.Number, cmd.ID)
	}
	return cmd, nil
}

func (i *Ingestor) replyAck(repo string, number int, commandID string) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	body := fmt.Sprintf("Queued command `%s`.", commandID)
	if err := i.replier.Reply(ctx, repo, number, body); err != nil {
		i.log.Warn("webhook.github.reply.fail", "err", err, "repo", repo, "number", number)
	}
}

func (i *Ingestor) create(ctx context.Context, now time.Time, cmd Command, sourceCtx map[string]any) (*Command, error) {
	id, err := identity.NewID(now)
	if err != nil {
		return nil, err
	}
	cmd.ID = id
	cmd.Status = StatusPending
	cmd.CreatedAt = now

	if err := i.store.Insert(ctx, cmd); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"id":        cmd.ID,
		"source":    cmd.Source,
		"text":      cmd.Text,
		"status":    cmd.Status,
		"createdAt": cmd.CreatedAt.UTC(),
	}
	for k, v := range sourceCtx {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	i.broadcast.Broadcast("webhook_command", "created", cmd.ID, data, now)
	i.log.Info("webhook.command.created", "id", cmd.ID, "source", cmd.Source, "actor", cmd.ActorID)
	return &cmd, nil
}
