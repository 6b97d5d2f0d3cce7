// Package workflow drives queue items through the delivery pipeline: assign
// the issue to the coding agent, get its PR reviewed, have review changes
// applied once, and merge.
package workflow

//go:generate moq -stub -out ../testutil/workflow_mock.go -pkg testutil . Source:SourceMock AgentControl:AgentControlMock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/classify"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// Source reads issues and pull requests from the code host.
type Source interface {
	// GetIssue returns the issue or an error if it cannot be read.
	GetIssue(ctx context.Context, number int) (*classify.IssueFacts, error)
	// FindIssue looks up the issue for a queue item ID. It returns nil, nil
	// when no issue matches.
	FindIssue(ctx context.Context, itemID string) (*classify.IssueFacts, error)
	// FindPR returns the number of the open PR that references the item, or 0.
	FindPR(ctx context.Context, itemID string, issueNumber int) (int, error)
	// GetPR returns the PR's raw facts.
	GetPR(ctx context.Context, number int) (*classify.PRFacts, error)
}

// AgentControl issues commands to the coding agent and the code host.
// A nil error means the command was accepted.
type AgentControl interface {
	Assign(ctx context.Context, issueNumber int, instructions, targetBranch string) error
	RequestReview(ctx context.Context, prNumber int) error
	CommentApplyChanges(ctx context.Context, prNumber int) error
	MarkReady(ctx context.Context, prNumber int) error
	Merge(ctx context.Context, prNumber int, method string) error
}

// Admission gates new assignments and is told about completions.
type Admission interface {
	CanAssign(ctx context.Context) bool
	RecordCompletion(ctx context.Context, itemID string) error
}

// LoopBreaker remembers PRs whose review cycle is closed.
type LoopBreaker interface {
	MarkDone(ctx context.Context, prNumber int, itemID string) error
	IsDone(ctx context.Context, prNumber int) (bool, error)
	Clear(ctx context.Context, prNumber int) error
}

// History records workflow events.
type History interface {
	Add(ctx context.Context, itemID, event, state string, prNumber int) error
}

// Config holds the knobs that change which rules fire and how actions run.
type Config struct {
	AutoAssign      bool
	AutoMerge       bool
	SkipFinalReview bool
	MergeMethod     string
	TargetBranch    string
	Instructions    string
	Classify        classify.Options
}

// Engine evaluates the transition table for one item at a time.
type Engine struct {
	source    Source
	agent     AgentControl
	admission Admission
	loops     LoopBreaker
	history   History
	cfg       Config
	rules     []Rule
	nowFunc   func() time.Time
	log       *slog.Logger
}

// NewEngine creates an engine using the default transition table.
func NewEngine(source Source, agent AgentControl, admission Admission, loops LoopBreaker, history History, cfg Config) *Engine {
	if cfg.MergeMethod == "" {
		cfg.MergeMethod = "squash"
	}
	return &Engine{
		source:    source,
		agent:     agent,
		admission: admission,
		loops:     loops,
		history:   history,
		cfg:       cfg,
		rules:     Rules,
		nowFunc:   time.Now,
		log:       logging.StateMachine(),
	}
}

// SetNowFunc sets the clock used for classification and timestamps.
// This is primarily for testing purposes.
func (e *Engine) SetNowFunc(f func() time.Time) {
	e.nowFunc = f
}

// SetConfig replaces the engine configuration, e.g. after a config reload.
func (e *Engine) SetConfig(cfg Config) {
	if cfg.MergeMethod == "" {
		cfg.MergeMethod = "squash"
	}
	e.cfg = cfg
}

// Cycle is the view of the whole queue the engine needs while stepping one item.
type Cycle struct {
	Items []*QueueItem
}

func (c *Cycle) anyInFlight() bool {
	for _, it := range c.Items {
		if it.State.InFlight() {
			return true
		}
	}
	return false
}

func (c *Cycle) firstQueued() *QueueItem {
	for _, it := range c.Items {
		if it.State == StateQueued {
			return it
		}
	}
	return nil
}

// prOwner returns the ID of another item already bound to pr.
func (c *Cycle) prOwner(pr int, self *QueueItem) string {
	for _, it := range c.Items {
		if it != self && it.PRNumber == pr {
			return it.ID
		}
	}
	return ""
}

// Outcome describes what one Step did.
type Outcome struct {
	ItemID   string
	From     State
	To       State
	Rules    []string
	Action   Action
	Messages []string
}

// Changed reports whether the step moved the item or issued an agent call.
func (o *Outcome) Changed() bool {
	return o.From != o.To || (o.Action != ActionNone && o.Action != ActionWait)
}

// Step observes the item on the code host, applies at most one observation
// rule and then at most one action rule. Items in a terminal state are left
// alone. When the action fails the item keeps its pre-action state and the
// error is returned.
func (e *Engine) Step(ctx context.Context, item *QueueItem, cycle *Cycle) (*Outcome, error) {
	out := &Outcome{ItemID: item.ID, From: item.State, To: item.State}
	if item.State.IsTerminal() {
		return out, nil
	}

	e.log.Debug("checking item", "item", item.ID, "state", item.State, "issue", item.IssueNumber, "pr", item.PRNumber)

	facts, err := e.observe(ctx, item, cycle)
	if err != nil {
		return out, err
	}
	if facts == nil {
		return out, nil
	}

	var errs []error
	if r := Match(e.rules, Observe, *facts); r != nil {
		errs = append(errs, e.apply(ctx, item, r, facts, out))
		if r.Final || item.State.IsTerminal() {
			out.To = item.State
			return out, errors.Join(errs...)
		}
		if r.Effects&EffectBindPR != 0 {
			if facts.LoopBroken, err = e.loops.IsDone(ctx, item.PRNumber); err != nil {
				errs = append(errs, fmt.Errorf("failed to read loop breaker: %w", err))
				out.To = item.State
				return out, errors.Join(errs...)
			}
		}
		facts.State = item.State
	}

	if item.State == StateQueued && facts.AutoAssign {
		facts.Admitted = e.admitted(ctx, item, cycle)
	}

	r := Match(e.rules, Act, *facts)
	switch {
	case r == nil:
	case r.Action == ActionWait:
		out.Rules = append(out.Rules, r.Name)
		out.Action = ActionWait
		e.log.Debug("waiting", "item", item.ID, "rule", r.Name, "reason", r.Describe)
	default:
		if err := e.perform(ctx, item, r); err != nil {
			e.log.Error("action failed", "item", item.ID, "rule", r.Name, "action", r.Action, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Action, err))
			break
		}
		out.Action = r.Action
		errs = append(errs, e.apply(ctx, item, r, facts, out))
	}

	out.To = item.State
	return out, errors.Join(errs...)
}

// observe gathers the facts for item. It returns nil facts when the item's
// issue cannot be found, which leaves the item untouched.
func (e *Engine) observe(ctx context.Context, item *QueueItem, cycle *Cycle) (*Facts, error) {
	f := &Facts{
		State:           item.State,
		AutoAssign:      e.cfg.AutoAssign,
		AutoMerge:       e.cfg.AutoMerge,
		SkipFinalReview: e.cfg.SkipFinalReview,
	}

	issue, err := e.issue(ctx, item)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		e.log.Warn("issue not found", "item", item.ID)
		return nil, nil
	}
	f.Issue = classify.ClassifyIssue(*issue, e.cfg.Classify.Extractor)
	if item.State == StateQueued && cycle != nil {
		f.OthersInFlight = cycle.anyInFlight()
	}
	if f.Issue.State == classify.IssueStateClosed || item.State == StateQueued {
		return f, nil
	}

	pr := item.PRNumber
	if pr != 0 {
		f.HasPR = true
	} else {
		found, err := e.source.FindPR(ctx, item.ID, item.IssueNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to discover PR: %w", err)
		}
		if found == 0 {
			return f, nil
		}
		if cycle != nil {
			if owner := cycle.prOwner(found, item); owner != "" {
				e.log.Warn("PR already bound to another item", "item", item.ID, "pr", found, "owner", owner)
				return f, nil
			}
		}
		f.DiscoveredPR = found
		pr = found
	}

	prFacts, err := e.source.GetPR(ctx, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR #%d: %w", pr, err)
	}
	for _, src := range prFacts.Degraded {
		e.log.Warn("signal source unavailable", "item", item.ID, "pr", pr, "source", src)
	}
	f.PR = classify.Classify(*prFacts, e.nowFunc(), e.cfg.Classify)

	if f.HasPR {
		if f.LoopBroken, err = e.loops.IsDone(ctx, pr); err != nil {
			return nil, fmt.Errorf("failed to read loop breaker: %w", err)
		}
	}

	e.log.Debug("classified",
		"item", item.ID, "pr", pr,
		"pr_state", f.PR.State,
		"draft", f.PR.IsDraft,
		"agent_working", f.PR.AgentIsWorking,
		"agent_reviewed", f.PR.AgentHasReviewed,
		"pending_suggestions", f.PR.HasPendingSuggestions,
		"grace", f.PR.InGracePeriod,
		"loop_broken", f.LoopBroken)
	return f, nil
}

// issue reads the item's issue, resolving the issue number on first use.
func (e *Engine) issue(ctx context.Context, item *QueueItem) (*classify.IssueFacts, error) {
	if item.IssueNumber == 0 {
		found, err := e.source.FindIssue(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to find issue: %w", err)
		}
		if found == nil {
			return nil, nil
		}
		item.IssueNumber = found.Number
		if item.IssueTitle == "" {
			item.IssueTitle = found.Title
		}
		return found, nil
	}

	issue, err := e.source.GetIssue(ctx, item.IssueNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue #%d: %w", item.IssueNumber, err)
	}
	if item.IssueTitle == "" {
		item.IssueTitle = issue.Title
	}
	return issue, nil
}

// admitted reports whether item may be assigned now: it must be the first
// queued item, nothing may be in flight and the cooldown must have elapsed.
func (e *Engine) admitted(ctx context.Context, item *QueueItem, cycle *Cycle) bool {
	if cycle == nil || item.IssueNumber == 0 {
		return false
	}
	if cycle.anyInFlight() || cycle.firstQueued() != item {
		return false
	}
	if !e.admission.CanAssign(ctx) {
		e.log.Debug("assignment held by cooldown", "item", item.ID)
		return false
	}
	return true
}

func (e *Engine) perform(ctx context.Context, item *QueueItem, r *Rule) error {
	e.log.Info("action", "item", item.ID, "rule", r.Name, "action", r.Action, "issue", item.IssueNumber, "pr", item.PRNumber)
	switch r.Action {
	case ActionAssign:
		return e.agent.Assign(ctx, item.IssueNumber, e.cfg.Instructions, e.cfg.TargetBranch)
	case ActionRequestReview:
		return e.agent.RequestReview(ctx, item.PRNumber)
	case ActionApplyChanges:
		return e.agent.CommentApplyChanges(ctx, item.PRNumber)
	case ActionMarkReady:
		return e.agent.MarkReady(ctx, item.PRNumber)
	case ActionMerge:
		return e.agent.Merge(ctx, item.PRNumber, e.cfg.MergeMethod)
	default:
		return fmt.Errorf("rule %s has unknown action %q", r.Name, r.Action)
	}
}

// apply moves the item along r and runs r's effects. The transition always
// happens; effect failures are returned together.
func (e *Engine) apply(ctx context.Context, item *QueueItem, r *Rule, f *Facts, out *Outcome) error {
	from := item.State
	if r.Effects&EffectBindPR != 0 {
		item.PRNumber = f.DiscoveredPR
		f.HasPR = true
	}
	pr := item.PRNumber

	if r.To != "" {
		if !ValidTransition(from, r.To) {
			return fmt.Errorf("rule %s: illegal transition %s -> %s", r.Name, from, r.To)
		}
		item.State = r.To
	}

	var errs []error
	if r.Effects&EffectMarkLoopBreaker != 0 {
		if err := e.loops.MarkDone(ctx, pr, item.ID); err != nil {
			errs = append(errs, fmt.Errorf("failed to close review cycle of PR #%d: %w", pr, err))
		}
	}
	if r.Effects&(EffectClearLoopBreaker|EffectClearPR) != 0 {
		if err := e.loops.Clear(ctx, pr); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear review cycle of PR #%d: %w", pr, err))
		}
	}
	if r.Effects&EffectClearPR != 0 {
		item.PRNumber = 0
	}
	if r.Effects&EffectStartCooldown != 0 {
		if err := e.admission.RecordCompletion(ctx, item.ID); err != nil {
			errs = append(errs, err)
		}
	}

	msg := r.Describe
	if pr != 0 {
		msg = fmt.Sprintf("%s (PR #%d)", r.Describe, pr)
	}
	item.LastAction = msg
	item.LastActionTime = e.nowFunc()
	out.Rules = append(out.Rules, r.Name)
	out.Messages = append(out.Messages, msg)

	if err := e.history.Add(ctx, item.ID, msg, string(item.State), pr); err != nil {
		e.log.Warn("failed to record history", "item", item.ID, "error", err)
	}
	e.log.Info("transition", "item", item.ID, "rule", r.Name, "from", from, "to", item.State, "pr", pr, "reason", r.Describe)
	return errors.Join(errs...)
}
