// Package github talks to the code host through the gh CLI. It reads issues
// and pull requests for the workflow engine and issues the agent control
// commands.
package github

//go:generate moq -stub -out ../testutil/runner_mock.go -pkg testutil . Runner:RunnerMock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// Runner executes a gh command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, args []string) ([]byte, error)
}

// ghRunner runs the real gh binary.
type ghRunner struct{}

func (ghRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("gh %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("gh %s: %w", args[0], err)
	}
	return output, nil
}

// Agent logins.
const (
	// AgentAssignee is the assignee handle that starts a coding agent session.
	AgentAssignee = "@copilot"
	// ReviewerLogin is the bot requested as PR reviewer.
	ReviewerLogin = "copilot-pull-request-reviewer[bot]"
)

// Comment bodies posted to drive the agent.
const (
	ApplyChangesComment   = "@copilot apply changes based on the review comments in this thread"
	ReviewFallbackComment = "@copilot Please review this PR."
)

// Client wraps the gh CLI for one repository.
type Client struct {
	runner Runner
	repo   string
	cache  *cache.Cache
}

// NewClient creates a client for repo ("owner/name") using the gh binary.
func NewClient(repo string) *Client {
	return NewClientWithRunner(ghRunner{}, repo)
}

// NewClientWithRunner creates a client that runs gh through runner.
func NewClientWithRunner(runner Runner, repo string) *Client {
	return &Client{
		runner: runner,
		repo:   repo,
		cache:  cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	logging.Debug("running gh", "args", args)
	return c.runner.Run(ctx, args)
}

// Probe checks that gh is authenticated and the repository is reachable.
func (c *Client) Probe(ctx context.Context) error {
	login, err := c.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("gh is not authenticated: %w", err)
	}
	output, err := c.run(ctx, "api", "repos/"+c.repo, "--jq", ".full_name")
	if err != nil {
		return fmt.Errorf("repository %s is not reachable: %w", c.repo, err)
	}
	if strings.TrimSpace(string(output)) == "" {
		return fmt.Errorf("repository %s is not reachable: empty response", c.repo)
	}
	logging.Info("connected to GitHub", "repo", c.repo, "user", login)
	return nil
}

// CurrentUser returns the authenticated login.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	if v, ok := c.cache.Get("user"); ok {
		return v.(string), nil
	}
	output, err := c.run(ctx, "api", "user", "--jq", ".login")
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	login := strings.TrimSpace(string(output))
	c.cache.Set("user", login, cache.NoExpiration)
	return login, nil
}

// decodeStream decodes the concatenated JSON arrays that gh api --paginate
// prints, one per page.
func decodeStream[T any](data []byte) ([]T, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var all []T
	for {
		var page []T
		if err := dec.Decode(&page); err != nil {
			if errors.Is(err, io.EOF) {
				return all, nil
			}
			return nil, err
		}
		all = append(all, page...)
	}
}

func parseNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
