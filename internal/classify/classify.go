// Package classify turns raw pull request and issue facts into the small set
// of signals the workflow engine reasons about.
package classify

import (
	"time"
)

// PRState is the classified state of a pull request.
type PRState string

const (
	PRStateOpen             PRState = "open"
	PRStateClosed           PRState = "closed"
	PRStateMerged           PRState = "merged"
	PRStateDraft            PRState = "draft"
	PRStateReviewRequested  PRState = "review_requested"
	PRStateChangesRequested PRState = "changes_requested"
	PRStateApproved         PRState = "approved"
)

// DefaultGracePeriod is how long a completed agent review with no comments is
// still treated as in progress, giving the code host time to index comments.
const DefaultGracePeriod = 120 * time.Second

// Options tune classification.
type Options struct {
	Extractor   Extractor
	GracePeriod time.Duration
	// SuggestionsOnly counts only review comments carrying a suggested edit
	// as pending. Otherwise any comment on the head commit counts.
	SuggestionsOnly bool
}

func (o Options) extractor() Extractor {
	if o.Extractor == nil {
		return CopilotExtractor{}
	}
	return o.Extractor
}

func (o Options) gracePeriod() time.Duration {
	if o.GracePeriod <= 0 {
		return DefaultGracePeriod
	}
	return o.GracePeriod
}

// Result is the classifier output for one pull request.
type Result struct {
	State                 PRState
	IsDraft               bool
	AgentIsWorking        bool
	AgentHasReviewed      bool
	HasPendingSuggestions bool
	InGracePeriod         bool
	HasReviewers          bool
	ReviewCompletedAt     time.Time

	// FormalApproval is set when the latest review is an APPROVED verdict
	// submitted after the latest apply-changes request.
	FormalApproval bool
}

// Classify derives the PR's state from its facts at time now.
// It never fails: a source listed in facts.Degraded simply contributes no signal.
func Classify(facts PRFacts, now time.Time, opts Options) Result {
	ex := opts.extractor()
	res := Result{
		IsDraft:      facts.Draft,
		HasReviewers: len(facts.RequestedReviewers) > 0,
	}

	// Apply-changes sessions: the newest request is open until a later
	// finished announcement appears. Older announcements are stale.
	var lastApply, lastFinished time.Time
	for _, c := range facts.IssueComments {
		if ex.IsApplyRequest(c.Body) && c.At.After(lastApply) {
			lastApply = c.At
		}
		if ex.IsWorkFinished(c.Body) && c.At.After(lastFinished) {
			lastFinished = c.At
		}
	}
	if !lastApply.IsZero() && !lastFinished.After(lastApply) {
		res.AgentIsWorking = true
	}

	// Timeline markers cover review sessions and sessions we did not start.
	var started, finished, requested time.Time
	for _, ev := range facts.Timeline {
		switch ev.Kind {
		case EventWorkStarted:
			started = latest(started, ev.At)
		case EventWorkFinished:
			finished = latest(finished, ev.At)
		case EventReviewRequested:
			requested = latest(requested, ev.At)
		}
	}
	if !started.IsZero() {
		if finished.IsZero() || started.After(finished) {
			res.AgentIsWorking = true
		} else if !requested.IsZero() && finished.After(requested) {
			res.AgentHasReviewed = true
			res.ReviewCompletedAt = finished
		}
	}

	// A signature review only answers review requests made before it.
	for _, r := range facts.Reviews {
		if ex.IsReviewSignature(r.Body) && (requested.IsZero() || r.SubmittedAt.After(requested)) {
			res.AgentHasReviewed = true
			if res.ReviewCompletedAt.IsZero() || r.SubmittedAt.After(res.ReviewCompletedAt) {
				res.ReviewCompletedAt = r.SubmittedAt
			}
		}
	}

	// A working agent has not finished any review yet.
	if res.AgentIsWorking {
		res.AgentHasReviewed = false
		res.ReviewCompletedAt = time.Time{}
	}

	if res.AgentHasReviewed {
		res.HasPendingSuggestions = hasPending(facts, ex, opts.SuggestionsOnly)
		if !res.HasPendingSuggestions && !res.ReviewCompletedAt.IsZero() &&
			now.Sub(res.ReviewCompletedAt) < opts.gracePeriod() {
			res.InGracePeriod = true
		}
	}

	var verdict string
	if n := len(facts.Reviews); n > 0 {
		last := facts.Reviews[n-1]
		verdict = last.State
		res.FormalApproval = verdict == ReviewApproved && last.SubmittedAt.After(lastApply)
	}

	switch {
	case facts.Merged:
		res.State = PRStateMerged
	case facts.Closed:
		res.State = PRStateClosed
	case verdict == ReviewApproved:
		res.State = PRStateApproved
	case verdict == ReviewChangesRequested:
		res.State = PRStateChangesRequested
	case res.AgentHasReviewed && res.HasPendingSuggestions:
		res.State = PRStateChangesRequested
	case res.AgentHasReviewed && res.InGracePeriod:
		res.State = PRStateReviewRequested
	case res.AgentHasReviewed:
		res.State = PRStateApproved
	case res.HasReviewers:
		res.State = PRStateReviewRequested
	case facts.Draft:
		res.State = PRStateDraft
	default:
		res.State = PRStateOpen
	}
	return res
}

// hasPending reports whether a review comment still targets the head commit.
// Comments on superseded commits were addressed by a later push.
func hasPending(facts PRFacts, ex Extractor, suggestionsOnly bool) bool {
	for _, c := range facts.ReviewComments {
		if c.CommitID != "" && c.CommitID != facts.HeadSHA {
			continue
		}
		if suggestionsOnly && !ex.IsSuggestion(c.Body) {
			continue
		}
		return true
	}
	return false
}

func latest(cur, t time.Time) time.Time {
	if t.After(cur) {
		return t
	}
	return cur
}

// IssueState is the classified state of an issue.
type IssueState string

const (
	IssueStateOpen       IssueState = "open"
	IssueStateClosed     IssueState = "closed"
	IssueStateInProgress IssueState = "in_progress"
)

// IssueResult is the classifier output for one issue.
type IssueResult struct {
	State         IssueState
	AgentAssigned bool
}

// ClassifyIssue derives the issue's state: closed wins, then any assignee
// means in progress.
func ClassifyIssue(facts IssueFacts, ex Extractor) IssueResult {
	if ex == nil {
		ex = CopilotExtractor{}
	}
	var res IssueResult
	for _, a := range facts.Assignees {
		if ex.IsAgentLogin(a) {
			res.AgentAssigned = true
		}
	}
	switch {
	case facts.Closed:
		res.State = IssueStateClosed
	case len(facts.Assignees) > 0:
		res.State = IssueStateInProgress
	default:
		res.State = IssueStateOpen
	}
	return res
}
