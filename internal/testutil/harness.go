package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/classify"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/cooldown"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/history"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/tracker"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/workflow"
)

// Harness wires a workflow engine to an in-memory code host and store.
// Tests script the host by editing Issues and PRs between steps.
type Harness struct {
	T     *testing.T
	Ctx   context.Context
	Store *MemoryStore

	mu     sync.Mutex
	now    time.Time
	Issues map[int]*classify.IssueFacts
	PRs    map[int]*classify.PRFacts
	// Links maps an issue number to the PR the agent opened for it.
	Links map[int]int

	Source   *SourceMock
	Agent    *AgentControlMock
	Cooldown *cooldown.Controller
	Tracker  *tracker.Tracker
	History  *history.Recorder
	Engine   *workflow.Engine
}

// HarnessStart is the initial harness clock.
var HarnessStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// NewHarness creates a harness with a cooldown of cooldownDur and the given
// engine config.
func NewHarness(t *testing.T, cfg workflow.Config, cooldownDur time.Duration) *Harness {
	t.Helper()
	h := &Harness{
		T:      t,
		Ctx:    context.Background(),
		Store:  NewMemoryStore(),
		now:    HarnessStart,
		Issues: make(map[int]*classify.IssueFacts),
		PRs:    make(map[int]*classify.PRFacts),
		Links:  make(map[int]int),
	}

	h.Source = &SourceMock{
		GetIssueFunc: func(ctx context.Context, number int) (*classify.IssueFacts, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			issue, ok := h.Issues[number]
			if !ok {
				return &classify.IssueFacts{Number: number}, nil
			}
			cp := *issue
			cp.Assignees = append([]string(nil), issue.Assignees...)
			return &cp, nil
		},
		FindIssueFunc: func(ctx context.Context, itemID string) (*classify.IssueFacts, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			for _, issue := range h.Issues {
				if strings.Contains(issue.Title, itemID) {
					cp := *issue
					return &cp, nil
				}
			}
			return nil, nil
		},
		FindPRFunc: func(ctx context.Context, itemID string, issueNumber int) (int, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.Links[issueNumber], nil
		},
		GetPRFunc: func(ctx context.Context, number int) (*classify.PRFacts, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			pr, ok := h.PRs[number]
			if !ok {
				return &classify.PRFacts{Number: number}, nil
			}
			cp := *pr
			return &cp, nil
		},
	}

	h.Agent = &AgentControlMock{
		AssignFunc: func(ctx context.Context, issueNumber int, instructions, targetBranch string) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			if issue, ok := h.Issues[issueNumber]; ok {
				issue.Assignees = append(issue.Assignees, "Copilot")
			}
			return nil
		},
		RequestReviewFunc: func(ctx context.Context, prNumber int) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			if pr, ok := h.PRs[prNumber]; ok {
				pr.RequestedReviewers = append(pr.RequestedReviewers, "Copilot")
				pr.Timeline = append(pr.Timeline, classify.TimelineEvent{Kind: classify.EventReviewRequested, At: h.now})
			}
			return nil
		},
		CommentApplyChangesFunc: func(ctx context.Context, prNumber int) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			if pr, ok := h.PRs[prNumber]; ok {
				pr.IssueComments = append(pr.IssueComments, classify.Comment{
					Body: "@copilot apply changes based on the review comments in this thread",
					At:   h.now,
				})
			}
			return nil
		},
		MarkReadyFunc: func(ctx context.Context, prNumber int) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			if pr, ok := h.PRs[prNumber]; ok {
				pr.Draft = false
			}
			return nil
		},
		MergeFunc: func(ctx context.Context, prNumber int, method string) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			if pr, ok := h.PRs[prNumber]; ok {
				pr.Merged = true
			}
			return nil
		},
	}

	h.Cooldown = cooldown.New(h.Store, cooldownDur)
	h.Cooldown.SetNowFunc(h.Now)
	h.Tracker = tracker.New(h.Store)
	h.Tracker.SetNowFunc(h.Now)
	h.History = history.New(h.Store)
	h.History.SetNowFunc(h.Now)
	h.Engine = workflow.NewEngine(h.Source, h.Agent, h.Cooldown, h.Tracker, h.History, cfg)
	h.Engine.SetNowFunc(h.Now)
	return h
}

// Now returns the harness clock.
func (h *Harness) Now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

// Advance moves the harness clock forward.
func (h *Harness) Advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = h.now.Add(d)
}

// AddIssue registers an open issue.
func (h *Harness) AddIssue(number int, title string) *classify.IssueFacts {
	h.mu.Lock()
	defer h.mu.Unlock()
	issue := &classify.IssueFacts{Number: number, Title: title}
	h.Issues[number] = issue
	return issue
}

// OpenPR registers a draft PR for issue that the engine can discover.
func (h *Harness) OpenPR(issue, number int) *classify.PRFacts {
	h.mu.Lock()
	defer h.mu.Unlock()
	pr := &classify.PRFacts{Number: number, Draft: true, HeadSHA: "head-1"}
	h.PRs[number] = pr
	h.Links[issue] = number
	return pr
}

// Update edits a PR under the harness lock.
func (h *Harness) Update(number int, f func(pr *classify.PRFacts)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	f(h.PRs[number])
}

// AgentReviews simulates a finished agent review session on pr: the session
// markers, the reviewer's signature review and comments left on its head
// commit.
func (h *Harness) AgentReviews(number int, comments ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pr := h.PRs[number]
	pr.Timeline = append(pr.Timeline,
		classify.TimelineEvent{Kind: classify.EventWorkStarted, At: h.now.Add(-2 * time.Minute)},
		classify.TimelineEvent{Kind: classify.EventWorkFinished, At: h.now.Add(-time.Minute)},
	)
	pr.Reviews = append(pr.Reviews, classify.Review{
		State:       classify.ReviewCommented,
		Body:        "## Pull request overview\n\nCopilot reviewed 1 out of 1 changed files",
		Author:      "copilot-pull-request-reviewer",
		SubmittedAt: h.now,
	})
	for _, c := range comments {
		pr.ReviewComments = append(pr.ReviewComments, classify.ReviewComment{Body: c, CommitID: pr.HeadSHA, At: h.now})
	}
}

// AgentPushes simulates the agent finishing an apply-changes session with a
// new head commit.
func (h *Harness) AgentPushes(number int, sha string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pr := h.PRs[number]
	pr.HeadSHA = sha
	pr.IssueComments = append(pr.IssueComments, classify.Comment{
		Body: "Copilot finished work on behalf of @octocat",
		At:   h.now,
	})
}

// StepAll steps every item once, in order, like a daemon cycle.
func (h *Harness) StepAll(items []*workflow.QueueItem) []error {
	h.T.Helper()
	cycle := &workflow.Cycle{Items: items}
	var errs []error
	for _, it := range items {
		if _, err := h.Engine.Step(h.Ctx, it, cycle); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
