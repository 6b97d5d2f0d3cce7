package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/classify"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateQueued, StateAssigned, true},
		{StateQueued, StateCompleted, true},
		{StateQueued, StatePROpen, false},
		{StateQueued, StateMerged, false},
		{StateAssigned, StatePROpen, true},
		{StateAssigned, StateReviewing, false},
		{StatePROpen, StateReviewRequested, true},
		{StatePROpen, StateReviewing, true},
		{StateReviewRequested, StateReviewing, true},
		{StateReviewing, StateChangesRequested, true},
		{StateReviewing, StateApproved, true},
		{StateReviewing, StateReviewRequested, false},
		{StateChangesRequested, StateApplyingChanges, true},
		{StateChangesRequested, StateReviewing, false},
		{StateApplyingChanges, StateReviewing, true},
		{StateApplyingChanges, StateChangesRequested, false},
		{StateApproved, StateMerged, true},
		{StateReviewing, StateQueued, true},
		{StateApproved, StateCompleted, true},
		{StateMerged, StateQueued, false},
		{StateCompleted, StateAssigned, false},
		{StateMerged, StateMerged, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, ValidTransition(tt.from, tt.to))
		})
	}
}

func TestRulesTargetLegalStates(t *testing.T) {
	for _, r := range Rules {
		if r.To == "" {
			continue
		}
		for _, from := range r.From {
			require.Truef(t, ValidTransition(from, r.To), "rule %s: %s -> %s", r.Name, from, r.To)
		}
		if r.Kind == Observe {
			require.Equal(t, ActionNone, r.Action, r.Name)
		} else {
			require.NotEqual(t, ActionNone, r.Action, r.Name)
		}
	}
}

var prStates = []classify.PRState{
	classify.PRStateOpen,
	classify.PRStateClosed,
	classify.PRStateMerged,
	classify.PRStateDraft,
	classify.PRStateReviewRequested,
	classify.PRStateChangesRequested,
	classify.PRStateApproved,
}

// factGrid calls fn for every combination of state, PR state and flags.
func factGrid(fn func(f Facts)) {
	bit := func(mask, i int) bool { return mask&(1<<i) != 0 }
	for _, st := range States {
		for _, ps := range prStates {
			for _, is := range []classify.IssueState{classify.IssueStateOpen, classify.IssueStateInProgress, classify.IssueStateClosed} {
				for mask := 0; mask < 1<<11; mask++ {
					f := Facts{
						State: st,
						Issue: classify.IssueResult{State: is, AgentAssigned: bit(mask, 0)},
						PR: classify.Result{
							State:          ps,
							IsDraft:        bit(mask, 1),
							AgentIsWorking: bit(mask, 2),
							HasReviewers:   bit(mask, 3),
						},
						LoopBroken:      bit(mask, 4),
						Admitted:        bit(mask, 5),
						AutoAssign:      bit(mask, 6),
						AutoMerge:       bit(mask, 7),
						SkipFinalReview: bit(mask, 8),
						OthersInFlight:  bit(mask, 10),
					}
					if bit(mask, 9) {
						f.HasPR = st != StateQueued && st != StateAssigned
						if st == StateAssigned {
							f.DiscoveredPR = 7
						}
					}
					fn(f)
				}
			}
		}
	}
}

// evaluate mirrors one engine step without side effects.
func evaluate(f Facts) (observed, acted *Rule, final State) {
	final = f.State
	if observed = Match(Rules, Observe, f); observed != nil {
		if observed.To != "" {
			final = observed.To
		}
		if observed.Final || final.IsTerminal() {
			return observed, nil, final
		}
		f.State = final
		if observed.Effects&EffectBindPR != 0 {
			f.HasPR = true
		}
	}
	if acted = Match(Rules, Act, f); acted != nil && acted.To != "" {
		final = acted.To
	}
	return observed, acted, final
}

func TestFactGridOnlyTakesLegalEdges(t *testing.T) {
	factGrid(func(f Facts) {
		observed, acted, final := evaluate(f)
		if f.State.IsTerminal() {
			require.Nil(t, observed, "terminal state %s must not move", f.State)
			require.Nil(t, acted, "terminal state %s must not act", f.State)
			return
		}

		mid := f.State
		if observed != nil && observed.To != "" {
			mid = observed.To
			require.Truef(t, ValidTransition(f.State, mid), "%s: %s -> %s", observed.Name, f.State, mid)
		}
		require.Truef(t, ValidTransition(mid, final), "%s -> %s", mid, final)

		if acted != nil && acted.Action == ActionAssign {
			require.True(t, f.Admitted && f.AutoAssign, "assign without admission")
		}
		if observed != nil && observed.Name == "adopt-assigned" {
			require.False(t, f.OthersInFlight, "adopted while another item is in flight")
		}
		if acted != nil && acted.Action == ActionMerge {
			require.True(t, f.AutoMerge && !f.PR.IsDraft, "merge without auto merge or while draft")
		}
	})
}

func TestFactGridLoopBrokenNeverReopensReviewRound(t *testing.T) {
	factGrid(func(f Facts) {
		// The cycle is closed in the same step that leaves changes_requested.
		if !f.LoopBroken || f.State == StateChangesRequested {
			return
		}
		observed, acted, final := evaluate(f)
		if observed != nil {
			require.NotEqualf(t, StateChangesRequested, observed.To, "rule %s", observed.Name)
			require.NotEqualf(t, StateReviewRequested, observed.To, "rule %s", observed.Name)
		}
		if acted != nil && acted.Action == ActionRequestReview {
			// The single follow-up review after applying changes.
			require.Equal(t, "follow-up-review", acted.Name)
		}
		if acted != nil {
			require.NotEqual(t, ActionApplyChanges, acted.Action)
		}
		require.NotEqual(t, StateChangesRequested, final)
	})
}

func TestMatchFirstRuleWins(t *testing.T) {
	f := Facts{
		State: StateReviewing,
		Issue: classify.IssueResult{State: classify.IssueStateClosed},
		HasPR: true,
		PR:    classify.Result{State: classify.PRStateMerged},
	}
	r := Match(Rules, Observe, f)
	require.NotNil(t, r)
	require.Equal(t, "issue-closed", r.Name)

	f.Issue.State = classify.IssueStateInProgress
	r = Match(Rules, Observe, f)
	require.NotNil(t, r)
	require.Equal(t, "pr-merged", r.Name)
}

func TestChangesAppliedNeedsFormalApproval(t *testing.T) {
	f := Facts{
		State: StateApplyingChanges,
		HasPR: true,
		PR:    classify.Result{State: classify.PRStateApproved, AgentHasReviewed: true},
	}
	require.Nil(t, Match(Rules, Observe, f))
	r := Match(Rules, Act, f)
	require.NotNil(t, r)
	require.Equal(t, "follow-up-review", r.Name)

	f.PR.FormalApproval = true
	r = Match(Rules, Observe, f)
	require.NotNil(t, r)
	require.Equal(t, "changes-applied-approved", r.Name)
}

func TestMatchWaitsWhileAgentWorks(t *testing.T) {
	for _, st := range []State{StateReviewing, StateApplyingChanges} {
		f := Facts{
			State: st,
			HasPR: true,
			PR:    classify.Result{State: classify.PRStateChangesRequested, AgentIsWorking: true},
		}
		require.Nil(t, Match(Rules, Observe, f))
		r := Match(Rules, Act, f)
		require.NotNil(t, r)
		require.Equal(t, ActionWait, r.Action)
	}
}

func TestParseState(t *testing.T) {
	for _, st := range States {
		got, err := ParseState(string(st))
		require.NoError(t, err)
		require.Equal(t, st, got)
	}
	_, err := ParseState("bogus")
	require.Error(t, err)
}

func TestQueueItemRestore(t *testing.T) {
	it := NewQueueItem("A", 12)
	it.State = StateReviewing
	it.PRNumber = 40
	it.IssueTitle = "title"
	rec := it.Record()

	restored := NewQueueItem("A", 0)
	require.NoError(t, restored.Restore(rec))
	require.Equal(t, it, restored)

	configured := NewQueueItem("A", 99)
	require.NoError(t, configured.Restore(rec))
	require.Equal(t, 99, configured.IssueNumber)

	rec.State = "nope"
	require.Error(t, configured.Restore(rec))
}
