package workflow

// AllowedEdges is every legal (from, to) transition. Any in-flight state may
// also end early: the issue closes (completed), the PR is merged outside the
// orchestrator (merged), or the PR is closed without merge (back to queued).
var AllowedEdges = map[State][]State{
	StateQueued:           {StateAssigned, StateCompleted},
	StateAssigned:         {StatePROpen},
	StatePROpen:           {StateReviewRequested, StateReviewing},
	StateReviewRequested:  {StateReviewing},
	StateReviewing:        {StateChangesRequested, StateApproved},
	StateChangesRequested: {StateApplyingChanges},
	StateApplyingChanges:  {StateReviewing, StateApproved},
	StateApproved:         {StateMerged},
}

// ValidTransition reports whether from → to is a legal edge. Staying in the
// same state is always legal.
func ValidTransition(from, to State) bool {
	if from == to {
		return true
	}
	if from.InFlight() && (to == StateCompleted || to == StateMerged || to == StateQueued) {
		return true
	}
	for _, s := range AllowedEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}
