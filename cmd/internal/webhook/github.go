package webhook

import (
	"encoding/json"
)

// GitHub event names this service consumes, from X-GitHub-Event.
const (
	GitHubEventIssueComment    = "issue_comment"
	GitHubEventPRReviewComment = "pull_request_review_comment"
	gitHubCommentActionCreated = "created"
)

// gitHubCommentPayload covers the fields shared by issue_comment and
// pull_request_review_comment deliveries.
type gitHubCommentPayload struct {
	Action  string `json:"action"`
	Comment struct {
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
		User    struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"comment"`
	Issue struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	} `json:"issue"`
	PullRequest struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// GitHubComment is a normalized created-comment event.
type GitHubComment struct {
	Repo       string
	Number     int
	ActorLogin string
	Body       string
	HTMLURL    string
}

// parseGitHubComment filters a delivery down to a normalized comment, or
// ok=false if the action or shape is out of scope.
func parseGitHubComment(event string, rawBody []byte) (GitHubComment, bool) {
	if event != GitHubEventIssueComment && event != GitHubEventPRReviewComment {
		return GitHubComment{}, false
	}

	var p gitHubCommentPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return GitHubComment{}, false
	}
	if p.Action != gitHubCommentActionCreated {
		return GitHubComment{}, false
	}

	number := p.Issue.Number
	if number == 0 {
		number = p.PullRequest.Number
	}
	return GitHubComment{
		Repo:       p.Repository.FullName,
		Number:     number,
		ActorLogin: p.Comment.User.Login,
		Body:       p.Comment.Body,
		HTMLURL:    p.Comment.HTMLURL,
	}, true
}
