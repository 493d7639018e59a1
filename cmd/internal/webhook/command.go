// Package webhook verifies inbound third-party signatures and turns
// qualifying Slack/GitHub events into persisted, broadcast commands.
package webhook

import (
	"context"
	"errors"
	"time"
)

// Command sources.
const (
	SourceSlack  = "slack"
	SourceGitHub = "github"
)

// StatusPending is the only status this service assigns. Downstream
// executors own all later transitions.
const StatusPending = "pending"

// ErrNotFound is returned when no command matches an ID.
var ErrNotFound = errors.New("webhook command not found")

// Command is a normalized record of an external mention intended to trigger
// downstream automation. Source-specific context (channel, repo, issue)
// travels on the broadcast payload, not here.
type Command struct {
	ID        string
	Source    string
	ActorID   string
	ChannelID string // Slack channel or GitHub repo full name
	SourceURL string
	Text      string
	Status    string
	CreatedAt time.Time
}

// Store abstracts command persistence.
type Store interface {
	// Insert stores a new pending command.
	Insert(ctx context.Context, c Command) error

	// List returns commands newest first, capped at limit.
	List(ctx context.Context, limit int) ([]Command, error)
}
