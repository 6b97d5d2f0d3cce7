package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/classify"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

type ghIssue struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	State     string `json:"state"`
	Assignees []struct {
		Login string `json:"login"`
	} `json:"assignees"`
}

func (i ghIssue) facts() *classify.IssueFacts {
	f := &classify.IssueFacts{
		Number: i.Number,
		Title:  i.Title,
		Closed: strings.EqualFold(i.State, "closed"),
	}
	for _, a := range i.Assignees {
		f.Assignees = append(f.Assignees, a.Login)
	}
	return f
}

const issueFields = "number,title,state,assignees"

// GetIssue fetches an issue by number.
func (c *Client) GetIssue(ctx context.Context, number int) (*classify.IssueFacts, error) {
	output, err := c.run(ctx, "issue", "view", fmt.Sprint(number), "--repo", c.repo, "--json", issueFields)
	if err != nil {
		return nil, fmt.Errorf("gh issue view failed: %w", err)
	}
	var issue ghIssue
	if err := json.Unmarshal(output, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse issue: %w", err)
	}
	return issue.facts(), nil
}

// FindIssue resolves a queue item ID to its issue. "#123" names the issue
// directly; any other ID is searched for in issue titles. Matches are cached.
func (c *Client) FindIssue(ctx context.Context, itemID string) (*classify.IssueFacts, error) {
	if strings.HasPrefix(itemID, "#") {
		if n, ok := parseNumber(itemID); ok {
			return c.GetIssue(ctx, n)
		}
	}

	key := "issue:" + itemID
	if v, ok := c.cache.Get(key); ok {
		return c.GetIssue(ctx, v.(int))
	}

	output, err := c.run(ctx, "issue", "list",
		"--repo", c.repo,
		"--state", "all",
		"--search", fmt.Sprintf("%q in:title", itemID),
		"--json", issueFields,
		"--limit", "30")
	if err != nil {
		return nil, fmt.Errorf("gh issue list failed: %w", err)
	}
	var issues []ghIssue
	if err := json.Unmarshal(output, &issues); err != nil {
		return nil, fmt.Errorf("failed to parse issue search: %w", err)
	}
	for _, issue := range issues {
		if strings.Contains(issue.Title, itemID) {
			c.cache.Set(key, issue.Number, cache.DefaultExpiration)
			logging.Debug("resolved issue", "item", itemID, "issue", issue.Number)
			return issue.facts(), nil
		}
	}
	return nil, nil
}
