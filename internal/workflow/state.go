package workflow

import (
	"fmt"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
)

// State is a queue item's position in the fixed delivery pipeline.
type State string

const (
	StateQueued           State = "queued"
	StateAssigned         State = "assigned"
	StatePROpen           State = "pr_open"
	StateReviewRequested  State = "review_requested"
	StateReviewing        State = "reviewing"
	StateChangesRequested State = "changes_requested"
	StateApplyingChanges  State = "applying_changes"
	StateApproved         State = "approved"
	StateMerged           State = "merged"
	StateCompleted        State = "completed"
)

// States lists every state in pipeline order.
var States = []State{
	StateQueued,
	StateAssigned,
	StatePROpen,
	StateReviewRequested,
	StateReviewing,
	StateChangesRequested,
	StateApplyingChanges,
	StateApproved,
	StateMerged,
	StateCompleted,
}

// ParseState converts a stored state name.
func ParseState(s string) (State, error) {
	for _, st := range States {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown workflow state %q", s)
}

// IsTerminal reports whether no further transitions happen from s.
func (s State) IsTerminal() bool {
	return s == StateMerged || s == StateCompleted
}

// InFlight reports whether the item has been handed to the agent and is not done.
func (s State) InFlight() bool {
	return s != StateQueued && !s.IsTerminal()
}

// QueueItem is one unit of work: an issue to be delivered through a PR.
type QueueItem struct {
	ID             string
	IssueNumber    int
	IssueTitle     string
	PRNumber       int
	State          State
	LastAction     string
	LastActionTime time.Time
}

// NewQueueItem returns a fresh item in the queued state.
func NewQueueItem(id string, issueNumber int) *QueueItem {
	return &QueueItem{ID: id, IssueNumber: issueNumber, State: StateQueued}
}

// Record converts the item to its persisted form.
func (it *QueueItem) Record() db.ItemRecord {
	return db.ItemRecord{
		ItemID:       it.ID,
		IssueNumber:  it.IssueNumber,
		PRNumber:     it.PRNumber,
		IssueTitle:   it.IssueTitle,
		State:        string(it.State),
		LastAction:   it.LastAction,
		LastActionAt: it.LastActionTime,
	}
}

// Restore applies a persisted record to the item. An issue number already
// configured for the item wins over the stored one.
func (it *QueueItem) Restore(rec db.ItemRecord) error {
	st, err := ParseState(rec.State)
	if err != nil {
		return err
	}
	it.State = st
	it.PRNumber = rec.PRNumber
	it.IssueTitle = rec.IssueTitle
	it.LastAction = rec.LastAction
	it.LastActionTime = rec.LastActionAt
	if it.IssueNumber == 0 {
		it.IssueNumber = rec.IssueNumber
	}
	return nil
}
