package webhook

import (
	"regexp"
	"strings"
)

// slackMentionPattern matches Slack's encoded mention tokens, e.g. <@U123ABC>.
var slackMentionPattern = regexp.MustCompile(`<@[^>]+>`)

// ExtractSlackCommand strips Slack mention tokens from an app_mention text
// and normalizes whitespace. An empty result means "mention only, no command".
func ExtractSlackCommand(text string) string {
	return collapseSpace(slackMentionPattern.ReplaceAllString(text, " "))
}

// ExtractGitHubCommand strips the first @mention of the configured bot handle
// from a comment body and normalizes whitespace. Comments that do not mention
// the bot yield an empty result and are ignored by the caller.
func ExtractGitHubCommand(body, botHandle string) string {
	mention := "@" + botHandle
	idx := indexFold(body, mention)
	if idx < 0 {
		return ""
	}
	return collapseSpace(body[:idx] + " " + body[idx+len(mention):])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// indexFold is a case-insensitive strings.Index that preserves byte offsets.
func indexFold(s, substr string) int {
	if substr == "" {
		return -1
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
