package webhook

import (
	"encoding/json"
	"net/url"
)

// SlackSlashCommand is the form-encoded payload of a slash command request.
type SlackSlashCommand struct {
	Command     string
	Text        string
	UserID      string
	ChannelID   string
	ResponseURL string
	TeamID      string
}

// ParseSlackSlashCommand decodes the raw form body of a slash command.
func ParseSlackSlashCommand(rawBody []byte) (SlackSlashCommand, error) {
	values, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return SlackSlashCommand{}, err
	}
	return SlackSlashCommand{
		Command:     values.Get("command"),
		Text:        values.Get("text"),
		UserID:      values.Get("user_id"),
		ChannelID:   values.Get("channel_id"),
		ResponseURL: values.Get("response_url"),
		TeamID:      values.Get("team_id"),
	}, nil
}

// Slack Events API envelope types.
const (
	slackTypeURLVerification = "url_verification"
	slackTypeEventCallback   = "event_callback"

	slackEventAppMention = "app_mention"
)

// slackEventEnvelope is the outer shape of an Events API request.
type slackEventEnvelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	TeamID    string          `json:"team_id"`
	Event     json.RawMessage `json:"event"`
}

// slackInnerEvent covers the app_mention fields this service consumes.
type slackInnerEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	User    string `json:"user"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// SlackMention is a normalized app_mention event.
type SlackMention struct {
	Text    string
	UserID  string
	Channel string
	TS      string
	TeamID  string
}
