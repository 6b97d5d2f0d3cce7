package classify

import "time"

// Timeline event kinds the classifier correlates.
const (
	EventWorkStarted     = "copilot_work_started"
	EventWorkFinished    = "copilot_work_finished"
	EventReviewRequested = "review_requested"
)

// Formal review verdicts.
const (
	ReviewApproved         = "APPROVED"
	ReviewChangesRequested = "CHANGES_REQUESTED"
	ReviewCommented        = "COMMENTED"
)

// PRFacts is the raw material fetched from the code host for one pull request.
// List fields are nil when their source could not be loaded; the name of the
// failed source is then listed in Degraded.
type PRFacts struct {
	Number             int
	Title              string
	Merged             bool
	Closed             bool
	Draft              bool
	HeadSHA            string
	Reviews            []Review
	RequestedReviewers []string
	Timeline           []TimelineEvent
	IssueComments      []Comment
	ReviewComments     []ReviewComment
	Degraded           []string
}

// Review is a submitted review. The last element of PRFacts.Reviews is the
// latest formal verdict.
type Review struct {
	State       string
	Body        string
	Author      string
	SubmittedAt time.Time
}

// TimelineEvent is one entry of the PR's issue timeline.
type TimelineEvent struct {
	Kind string
	At   time.Time
}

// Comment is a conversation comment on the PR.
type Comment struct {
	Body   string
	Author string
	At     time.Time
}

// ReviewComment is a comment attached to a line in a review thread.
type ReviewComment struct {
	Body     string
	CommitID string
	Author   string
	At       time.Time
}

// IssueFacts is the raw material for one issue.
type IssueFacts struct {
	Number    int
	Title     string
	Closed    bool
	Assignees []string
}
