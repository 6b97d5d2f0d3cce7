package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/classify"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// Signal sources that may be missing from PR facts.
const (
	SourceTimeline       = "timeline"
	SourceIssueComments  = "issue_comments"
	SourceReviewComments = "review_comments"
)

type ghPR struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	State       string `json:"state"`
	IsDraft     bool   `json:"isDraft"`
	HeadRefOid  string `json:"headRefOid"`
	HeadRefName string `json:"headRefName"`
	Author      struct {
		Login string `json:"login"`
	} `json:"author"`
	Reviews []struct {
		Author struct {
			Login string `json:"login"`
		} `json:"author"`
		State       string    `json:"state"`
		Body        string    `json:"body"`
		SubmittedAt time.Time `json:"submittedAt"`
	} `json:"reviews"`
	ReviewRequests []struct {
		Login string `json:"login"`
		Name  string `json:"name"`
		Slug  string `json:"slug"`
	} `json:"reviewRequests"`
}

// linksTo reports whether the PR references the queue item or its issue:
// the item ID in the title or body, an issue reference in the text, or the
// issue number in the branch name.
func (p ghPR) linksTo(itemID string, issueNumber int) bool {
	if itemID != "" && !strings.HasPrefix(itemID, "#") &&
		(strings.Contains(p.Title, itemID) || strings.Contains(p.Body, itemID)) {
		return true
	}
	if issueNumber <= 0 {
		return false
	}

	text := strings.ToLower(p.Title + " " + p.Body)
	n := fmt.Sprint(issueNumber)
	for _, pattern := range []string{"#" + n, "fixes #" + n, "closes #" + n, "resolves #" + n, "issue " + n} {
		if containsRef(text, pattern) {
			return true
		}
	}
	if strings.HasSuffix(p.HeadRefName, "-"+n) || strings.HasSuffix(p.HeadRefName, "/"+n) ||
		strings.Contains(p.HeadRefName, "-"+n+"-") || strings.Contains(p.HeadRefName, "/"+n+"-") {
		return true
	}
	return false
}

// containsRef finds pattern in text not followed by another digit, so that
// "#12" does not match "#123".
func containsRef(text, pattern string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], pattern)
		if j < 0 {
			return false
		}
		end := i + j + len(pattern)
		if end == len(text) || text[end] < '0' || text[end] > '9' {
			return true
		}
		i = end
	}
}

// FindPR returns the number of the open PR linked to the item, or 0.
func (c *Client) FindPR(ctx context.Context, itemID string, issueNumber int) (int, error) {
	output, err := c.run(ctx, "pr", "list",
		"--repo", c.repo,
		"--state", "open",
		"--json", "number,title,body,headRefName,author",
		"--limit", "100")
	if err != nil {
		return 0, fmt.Errorf("gh pr list failed: %w", err)
	}
	var prs []ghPR
	if err := json.Unmarshal(output, &prs); err != nil {
		return 0, fmt.Errorf("failed to parse PR list: %w", err)
	}
	for _, pr := range prs {
		if pr.linksTo(itemID, issueNumber) {
			logging.Debug("found linked PR", "item", itemID, "issue", issueNumber, "pr", pr.Number)
			return pr.Number, nil
		}
	}
	return 0, nil
}

type ghTimelineEvent struct {
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
}

type ghUser struct {
	Login string `json:"login"`
}

type ghIssueComment struct {
	Body      string    `json:"body"`
	User      ghUser    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

type ghReviewComment struct {
	Body      string    `json:"body"`
	CommitID  string    `json:"commit_id"`
	User      ghUser    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// GetPR fetches everything the classifier needs about a PR. The core PR
// view must succeed; the timeline and comment lists are best effort and are
// listed in Degraded when they cannot be read.
func (c *Client) GetPR(ctx context.Context, number int) (*classify.PRFacts, error) {
	output, err := c.run(ctx, "pr", "view", fmt.Sprint(number),
		"--repo", c.repo,
		"--json", "number,title,state,isDraft,headRefOid,reviews,reviewRequests")
	if err != nil {
		return nil, fmt.Errorf("gh pr view failed: %w", err)
	}
	var pr ghPR
	if err := json.Unmarshal(output, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse PR: %w", err)
	}

	facts := &classify.PRFacts{
		Number:  pr.Number,
		Title:   pr.Title,
		Merged:  strings.EqualFold(pr.State, "merged"),
		Closed:  strings.EqualFold(pr.State, "closed"),
		Draft:   pr.IsDraft,
		HeadSHA: pr.HeadRefOid,
	}
	for _, r := range pr.Reviews {
		facts.Reviews = append(facts.Reviews, classify.Review{
			State:       r.State,
			Body:        r.Body,
			Author:      r.Author.Login,
			SubmittedAt: r.SubmittedAt,
		})
	}
	for _, r := range pr.ReviewRequests {
		facts.RequestedReviewers = append(facts.RequestedReviewers, firstNonEmpty(r.Login, r.Slug, r.Name))
	}

	base := fmt.Sprintf("repos/%s", c.repo)

	if events, err := fetchPages[ghTimelineEvent](ctx, c, fmt.Sprintf("%s/issues/%d/timeline", base, number)); err != nil {
		logging.Warn("failed to fetch PR timeline", "pr", number, "error", err)
		facts.Degraded = append(facts.Degraded, SourceTimeline)
	} else {
		for _, ev := range events {
			facts.Timeline = append(facts.Timeline, classify.TimelineEvent{Kind: ev.Event, At: ev.CreatedAt})
		}
	}

	if comments, err := fetchPages[ghIssueComment](ctx, c, fmt.Sprintf("%s/issues/%d/comments", base, number)); err != nil {
		logging.Warn("failed to fetch PR comments", "pr", number, "error", err)
		facts.Degraded = append(facts.Degraded, SourceIssueComments)
	} else {
		for _, cm := range comments {
			facts.IssueComments = append(facts.IssueComments, classify.Comment{Body: cm.Body, Author: cm.User.Login, At: cm.CreatedAt})
		}
	}

	if comments, err := fetchPages[ghReviewComment](ctx, c, fmt.Sprintf("%s/pulls/%d/comments", base, number)); err != nil {
		logging.Warn("failed to fetch PR review comments", "pr", number, "error", err)
		facts.Degraded = append(facts.Degraded, SourceReviewComments)
	} else {
		for _, cm := range comments {
			facts.ReviewComments = append(facts.ReviewComments, classify.ReviewComment{
				Body:     cm.Body,
				CommitID: cm.CommitID,
				Author:   cm.User.Login,
				At:       cm.CreatedAt,
			})
		}
	}

	return facts, nil
}

func fetchPages[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	output, err := c.run(ctx, "api", "--paginate", path)
	if err != nil {
		return nil, err
	}
	items, err := decodeStream[T](output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
