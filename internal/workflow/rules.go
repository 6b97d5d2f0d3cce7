package workflow

import (
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/classify"
)

// Kind separates rules that only record what happened on the code host from
// rules that make the orchestrator do something.
type Kind int

const (
	// Observe rules follow external facts and have no side effect on the code host.
	Observe Kind = iota
	// Act rules issue exactly one agent control call, or explicitly wait.
	Act
)

// LoopFlag restricts a rule to items whose PR review cycle is closed or open.
type LoopFlag int

const (
	LoopAny LoopFlag = iota
	LoopSet
	LoopUnset
)

// Action is the agent control call a rule issues.
type Action string

const (
	ActionNone          Action = ""
	ActionWait          Action = "wait"
	ActionAssign        Action = "assign"
	ActionRequestReview Action = "request_review"
	ActionApplyChanges  Action = "apply_changes"
	ActionMarkReady     Action = "mark_ready"
	ActionMerge         Action = "merge"
)

// Effect is a bookkeeping step applied after a rule's transition.
type Effect uint8

const (
	// EffectBindPR associates the discovered PR with the item.
	EffectBindPR Effect = 1 << iota
	// EffectClearPR forgets the item's PR and reopens its review cycle.
	EffectClearPR
	// EffectStartCooldown records a completion with the admission controller.
	EffectStartCooldown
	// EffectMarkLoopBreaker closes the PR's review cycle.
	EffectMarkLoopBreaker
	// EffectClearLoopBreaker removes the PR's loop-breaker entry.
	EffectClearLoopBreaker
)

// Facts is everything a rule may look at for one item in one cycle.
type Facts struct {
	State        State
	Issue        classify.IssueResult
	HasPR        bool
	DiscoveredPR int
	PR           classify.Result
	LoopBroken   bool
	Admitted     bool

	// OthersInFlight is set for queued items when another item is in flight.
	OthersInFlight bool

	AutoAssign      bool
	AutoMerge       bool
	SkipFinalReview bool
}

func (f Facts) issueClosed() bool { return f.Issue.State == classify.IssueStateClosed }
func (f Facts) working() bool     { return f.PR.AgentIsWorking }
func (f Facts) prState() classify.PRState {
	return f.PR.State
}

// Rule is one row of the transition table.
type Rule struct {
	Name string
	Kind Kind
	// From lists the states the rule applies to.
	From []State
	Loop LoopFlag
	When func(Facts) bool
	// Action is ActionNone for Observe rules.
	Action Action
	// To is the resulting state; empty leaves the state unchanged.
	To      State
	Effects Effect
	// Final stops evaluation for this cycle after the rule applies.
	Final    bool
	Describe string
}

func (r *Rule) matches(f Facts) bool {
	found := false
	for _, s := range r.From {
		if s == f.State {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	switch r.Loop {
	case LoopSet:
		if !f.LoopBroken {
			return false
		}
	case LoopUnset:
		if f.LoopBroken {
			return false
		}
	}
	return r.When == nil || r.When(f)
}

var inFlight = []State{
	StateAssigned, StatePROpen, StateReviewRequested, StateReviewing,
	StateChangesRequested, StateApplyingChanges, StateApproved,
}

var withPR = []State{
	StatePROpen, StateReviewRequested, StateReviewing,
	StateChangesRequested, StateApplyingChanges, StateApproved,
}

// Rules is the transition table. Within a kind, the first matching rule wins.
var Rules = []Rule{
	// Observations.
	{
		Name: "issue-closed", Kind: Observe, From: inFlight,
		When:    Facts.issueClosed,
		To:      StateCompleted,
		Effects: EffectStartCooldown | EffectClearLoopBreaker, Final: true,
		Describe: "Issue closed",
	},
	{
		Name: "issue-closed-queued", Kind: Observe, From: []State{StateQueued},
		When: Facts.issueClosed,
		To:   StateCompleted, Final: true,
		Describe: "Issue closed before assignment",
	},
	{
		Name: "pr-merged", Kind: Observe, From: withPR,
		When: func(f Facts) bool { return f.HasPR && f.prState() == classify.PRStateMerged },
		To:   StateMerged,
		Effects: EffectStartCooldown | EffectClearLoopBreaker, Final: true,
		Describe: "PR merged",
	},
	{
		Name: "pr-closed", Kind: Observe, From: withPR,
		When: func(f Facts) bool { return f.HasPR && f.prState() == classify.PRStateClosed },
		To:   StateQueued,
		Effects: EffectClearPR, Final: true,
		Describe: "PR closed without merge, back to queue",
	},
	{
		Name: "adopt-assigned", Kind: Observe, From: []State{StateQueued},
		When:     func(f Facts) bool { return f.Issue.AgentAssigned && !f.OthersInFlight },
		To:       StateAssigned,
		Describe: "Issue already assigned to agent",
	},
	{
		Name: "pr-discovered", Kind: Observe, From: []State{StateAssigned},
		When: func(f Facts) bool {
			return f.DiscoveredPR != 0 && f.prState() != classify.PRStateMerged && f.prState() != classify.PRStateClosed
		},
		To:       StatePROpen,
		Effects:  EffectBindPR,
		Describe: "PR opened",
	},
	{
		Name: "agent-requested-review", Kind: Observe, From: []State{StatePROpen}, Loop: LoopUnset,
		When:     func(f Facts) bool { return !f.working() && f.prState() == classify.PRStateReviewRequested },
		To:       StateReviewRequested,
		Describe: "Agent requested review",
	},
	{
		Name: "loop-closed-await-approval", Kind: Observe, From: []State{StatePROpen, StateReviewRequested}, Loop: LoopSet,
		When:     func(f Facts) bool { return !f.working() },
		To:       StateReviewing,
		Describe: "Review cycle closed, awaiting approval",
	},
	{
		Name: "review-changes-requested", Kind: Observe, From: []State{StateReviewing}, Loop: LoopUnset,
		When:     func(f Facts) bool { return !f.working() && f.prState() == classify.PRStateChangesRequested },
		To:       StateChangesRequested,
		Describe: "Review requested changes",
	},
	{
		Name: "review-approved", Kind: Observe, From: []State{StateReviewing},
		When: func(f Facts) bool {
			return !f.working() && !f.PR.IsDraft && f.prState() == classify.PRStateApproved
		},
		To:       StateApproved,
		Describe: "Review approved",
	},
	{
		Name: "loop-closed-skip-final", Kind: Observe, From: []State{StateReviewing}, Loop: LoopSet,
		When:     func(f Facts) bool { return !f.working() && !f.PR.IsDraft && f.SkipFinalReview },
		To:       StateApproved,
		Describe: "Review cycle closed, final review skipped",
	},
	{
		Name: "changes-applied-approved", Kind: Observe, From: []State{StateApplyingChanges},
		When:     func(f Facts) bool { return !f.working() && f.PR.FormalApproval },
		To:       StateApproved,
		Describe: "Changes applied and approved",
	},
	{
		Name: "changes-applied-skip-final", Kind: Observe, From: []State{StateApplyingChanges},
		When: func(f Facts) bool {
			return !f.working() && !f.PR.IsDraft && f.SkipFinalReview && f.prState() != classify.PRStateChangesRequested
		},
		To:       StateApproved,
		Describe: "Changes applied, final review skipped",
	},

	// Actions.
	{
		Name: "assign", Kind: Act, From: []State{StateQueued},
		When:     func(f Facts) bool { return f.AutoAssign && f.Admitted },
		Action:   ActionAssign,
		To:       StateAssigned,
		Describe: "Assigned issue to agent",
	},
	{
		Name: "request-review", Kind: Act, From: []State{StatePROpen}, Loop: LoopUnset,
		When: func(f Facts) bool {
			return !f.working() && !f.PR.IsDraft && !f.PR.HasReviewers
		},
		Action:   ActionRequestReview,
		To:       StateReviewRequested,
		Describe: "Requested review",
	},
	{
		Name: "reassign-review", Kind: Act, From: []State{StateReviewRequested}, Loop: LoopUnset,
		When:     func(f Facts) bool { return !f.working() },
		Action:   ActionRequestReview,
		To:       StateReviewing,
		Describe: "Assigned review to agent",
	},
	{
		Name: "reviewing-wait", Kind: Act, From: []State{StateReviewing},
		When:     Facts.working,
		Action:   ActionWait,
		Describe: "Waiting for agent review",
	},
	{
		Name: "reviewing-mark-ready", Kind: Act, From: []State{StateReviewing},
		When: func(f Facts) bool {
			return f.PR.IsDraft && (f.prState() == classify.PRStateApproved || f.LoopBroken)
		},
		Action:   ActionMarkReady,
		Describe: "Marked PR ready for review",
	},
	{
		Name: "apply-changes", Kind: Act, From: []State{StateChangesRequested},
		When:     func(f Facts) bool { return !f.working() },
		Action:   ActionApplyChanges,
		To:       StateApplyingChanges,
		Effects:  EffectMarkLoopBreaker,
		Describe: "Asked agent to apply review changes",
	},
	{
		Name: "applying-wait", Kind: Act, From: []State{StateApplyingChanges},
		When:     Facts.working,
		Action:   ActionWait,
		Describe: "Waiting for agent to apply changes",
	},
	{
		Name: "applying-skip-final-mark-ready", Kind: Act, From: []State{StateApplyingChanges},
		When: func(f Facts) bool {
			return f.PR.IsDraft && f.SkipFinalReview && f.prState() != classify.PRStateChangesRequested
		},
		Action:   ActionMarkReady,
		To:       StateApproved,
		Describe: "Marked PR ready, final review skipped",
	},
	{
		Name: "follow-up-review", Kind: Act, From: []State{StateApplyingChanges},
		When: func(f Facts) bool {
			return !f.SkipFinalReview && f.prState() != classify.PRStateChangesRequested
		},
		Action:   ActionRequestReview,
		To:       StateReviewing,
		Describe: "Requested final review",
	},
	{
		Name: "approved-mark-ready", Kind: Act, From: []State{StateApproved},
		When:     func(f Facts) bool { return f.AutoMerge && f.PR.IsDraft },
		Action:   ActionMarkReady,
		Describe: "Marked PR ready for merge",
	},
	{
		Name: "merge", Kind: Act, From: []State{StateApproved},
		When:     func(f Facts) bool { return f.AutoMerge && !f.PR.IsDraft },
		Action:   ActionMerge,
		To:       StateMerged,
		Effects:  EffectStartCooldown | EffectClearLoopBreaker,
		Describe: "Merged PR",
	},
}

// Match returns the first rule of kind k that matches f, or nil.
func Match(rules []Rule, k Kind, f Facts) *Rule {
	for i := range rules {
		if rules[i].Kind == k && rules[i].matches(f) {
			return &rules[i]
		}
	}
	return nil
}
