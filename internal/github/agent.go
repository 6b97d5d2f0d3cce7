package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// Assign hands the issue to the coding agent. When instructions are given,
// they are posted as a comment together with the target branch.
func (c *Client) Assign(ctx context.Context, issueNumber int, instructions, targetBranch string) error {
	logging.Info("assigning issue to agent", "issue", issueNumber)
	if _, err := c.run(ctx, "issue", "edit", fmt.Sprint(issueNumber),
		"--repo", c.repo,
		"--add-assignee", AgentAssignee); err != nil {
		return fmt.Errorf("failed to assign issue #%d: %w", issueNumber, err)
	}

	if instructions == "" {
		return nil
	}
	if _, err := c.run(ctx, "issue", "comment", fmt.Sprint(issueNumber),
		"--repo", c.repo,
		"--body", InstructionsComment(instructions, targetBranch)); err != nil {
		return fmt.Errorf("failed to post instructions on issue #%d: %w", issueNumber, err)
	}
	return nil
}

// InstructionsComment formats the comment posted after assignment.
func InstructionsComment(instructions, targetBranch string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Target Branch:** `%s`\n\n---\n\n**Instructions:**\n\n", targetBranch)
	b.WriteString(instructions)
	return b.String()
}

// RequestReview asks the review bot to review the PR. If the reviewer
// request is rejected, a review comment mentioning the agent is posted
// instead.
func (c *Client) RequestReview(ctx context.Context, prNumber int) error {
	_, err := c.run(ctx, "api",
		"--method", "POST",
		fmt.Sprintf("repos/%s/pulls/%d/requested_reviewers", c.repo, prNumber),
		"-f", "reviewers[]="+ReviewerLogin)
	if err == nil {
		logging.Info("requested agent review", "pr", prNumber)
		return nil
	}

	logging.Warn("reviewer request failed, falling back to comment", "pr", prNumber, "error", err)
	if err := c.comment(ctx, prNumber, ReviewFallbackComment); err != nil {
		return fmt.Errorf("failed to request review on PR #%d: %w", prNumber, err)
	}
	return nil
}

// CommentApplyChanges tells the agent to apply the review comments.
func (c *Client) CommentApplyChanges(ctx context.Context, prNumber int) error {
	if err := c.comment(ctx, prNumber, ApplyChangesComment); err != nil {
		return fmt.Errorf("failed to request changes on PR #%d: %w", prNumber, err)
	}
	return nil
}

func (c *Client) comment(ctx context.Context, prNumber int, body string) error {
	_, err := c.run(ctx, "pr", "comment", fmt.Sprint(prNumber), "--repo", c.repo, "--body", body)
	return err
}

// MarkReady takes the PR out of draft.
func (c *Client) MarkReady(ctx context.Context, prNumber int) error {
	if _, err := c.run(ctx, "pr", "ready", fmt.Sprint(prNumber), "--repo", c.repo); err != nil {
		return fmt.Errorf("failed to mark PR #%d ready: %w", prNumber, err)
	}
	return nil
}

// Merge merges the PR with method: "squash", "merge" or "rebase".
func (c *Client) Merge(ctx context.Context, prNumber int, method string) error {
	var flag string
	switch method {
	case "", "squash":
		flag = "--squash"
	case "merge":
		flag = "--merge"
	case "rebase":
		flag = "--rebase"
	default:
		return fmt.Errorf("unknown merge method %q", method)
	}
	if _, err := c.run(ctx, "pr", "merge", fmt.Sprint(prNumber), "--repo", c.repo, flag); err != nil {
		return fmt.Errorf("failed to merge PR #%d: %w", prNumber, err)
	}
	logging.Info("merged PR", "pr", prNumber, "method", method)
	return nil
}
