package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/classify"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/testutil"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/workflow"
)

func requireNoErrors(t *testing.T, errs []error) {
	t.Helper()
	require.Empty(t, errs)
}

func TestEngineDeliversQueueInOrderWithCooldown(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoAssign: true, AutoMerge: true}, 60*time.Minute)
	h.AddIssue(1, "A: first")
	h.AddIssue(2, "B: second")
	a := workflow.NewQueueItem("A", 1)
	b := workflow.NewQueueItem("B", 2)
	items := []*workflow.QueueItem{a, b}

	// Only the head of the queue is assigned.
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateAssigned, a.State)
	require.Equal(t, workflow.StateQueued, b.State)
	require.Len(t, h.Agent.AssignCalls(), 1)
	require.Equal(t, 1, h.Agent.AssignCalls()[0].IssueNumber)

	// The agent opens a draft PR and is still working on it.
	h.OpenPR(1, 10)
	h.Update(10, func(pr *classify.PRFacts) {
		pr.Timeline = append(pr.Timeline, classify.TimelineEvent{Kind: classify.EventWorkStarted, At: h.Now()})
	})
	h.Advance(5 * time.Minute)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StatePROpen, a.State)
	require.Equal(t, 10, a.PRNumber)
	require.Empty(t, h.Agent.RequestReviewCalls())

	// The agent finishes and asks its assigner for review.
	h.Advance(10 * time.Minute)
	h.Update(10, func(pr *classify.PRFacts) {
		pr.Timeline = append(pr.Timeline, classify.TimelineEvent{Kind: classify.EventWorkFinished, At: h.Now()})
		pr.RequestedReviewers = []string{"octocat"}
	})
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateReviewing, a.State)
	require.Len(t, h.Agent.RequestReviewCalls(), 1)

	// The agent review leaves a comment on the head commit.
	h.Advance(5 * time.Minute)
	h.AgentReviews(10, "rename foo")
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateApplyingChanges, a.State)
	require.Len(t, h.Agent.CommentApplyChangesCalls(), 1)
	done, err := h.Tracker.IsDone(h.Ctx, 10)
	require.NoError(t, err)
	require.True(t, done)

	// Agent still applying.
	h.Advance(time.Minute)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateApplyingChanges, a.State)

	// Changes pushed: the old comment is on a superseded commit and the
	// follow-up review is requested.
	h.Advance(10 * time.Minute)
	h.AgentPushes(10, "head-2")
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateReviewing, a.State)
	require.Len(t, h.Agent.RequestReviewCalls(), 2)
	require.Empty(t, h.Agent.MergeCalls())

	// The closed cycle readies the draft while the follow-up review runs.
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateReviewing, a.State)
	require.Len(t, h.Agent.MarkReadyCalls(), 1)
	require.Empty(t, h.Agent.MergeCalls())

	h.Advance(5 * time.Minute)
	h.AgentReviews(10)
	h.Advance(3 * time.Minute)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateMerged, a.State)
	require.Len(t, h.Agent.MergeCalls(), 1)
	require.Equal(t, "squash", h.Agent.MergeCalls()[0].Method)
	require.Equal(t, workflow.StateQueued, b.State, "cooldown holds the next item")

	done, err = h.Tracker.IsDone(h.Ctx, 10)
	require.NoError(t, err)
	require.False(t, done)

	h.Advance(59 * time.Minute)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateQueued, b.State)

	h.Advance(2 * time.Minute)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateAssigned, b.State)
	require.Len(t, h.Agent.AssignCalls(), 2)
	require.Equal(t, workflow.StateMerged, a.State)

	entries, err := h.History.Get(h.Ctx, "A")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	require.Equal(t, "Merged PR (PR #10)", last.Event)
	require.Equal(t, string(workflow.StateMerged), last.State)
	require.Equal(t, 10, last.PRNumber)
}

func TestEngineAssignsOneItemAtATime(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoAssign: true}, 0)
	var items []*workflow.QueueItem
	for i, id := range []string{"A", "B", "C"} {
		h.AddIssue(i+1, id)
		items = append(items, workflow.NewQueueItem(id, i+1))
	}

	for range 5 {
		requireNoErrors(t, h.StepAll(items))
		h.Advance(time.Minute)
	}

	require.Len(t, h.Agent.AssignCalls(), 1)
	inFlight := 0
	for _, it := range items {
		if it.State.InFlight() {
			inFlight++
		}
	}
	require.Equal(t, 1, inFlight)
	require.Equal(t, workflow.StateAssigned, items[0].State)
}

func TestEngineAutoAssignDisabled(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{}, 0)
	h.AddIssue(1, "A")
	a := workflow.NewQueueItem("A", 1)

	requireNoErrors(t, h.StepAll([]*workflow.QueueItem{a}))
	require.Equal(t, workflow.StateQueued, a.State)
	require.Empty(t, h.Agent.AssignCalls())
}

func TestEngineClosedPRRequeuesItem(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoAssign: true}, 0)
	issue := h.AddIssue(7, "A")
	issue.Assignees = []string{"Copilot"}
	h.PRs[42] = &classify.PRFacts{Number: 42, Closed: true}
	require.NoError(t, h.Tracker.MarkDone(h.Ctx, 42, "A"))

	a := &workflow.QueueItem{ID: "A", IssueNumber: 7, PRNumber: 42, State: workflow.StateReviewing}
	out, err := h.Engine.Step(h.Ctx, a, &workflow.Cycle{Items: []*workflow.QueueItem{a}})
	require.NoError(t, err)
	require.Equal(t, workflow.StateQueued, a.State)
	require.Equal(t, 0, a.PRNumber)
	require.Equal(t, []string{"pr-closed"}, out.Rules)
	require.True(t, out.Changed())

	done, err := h.Tracker.IsDone(h.Ctx, 42)
	require.NoError(t, err)
	require.False(t, done)
	require.Empty(t, h.Agent.AssignCalls())
}

func TestEngineIssueClosedCompletesAndStartsCooldown(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoAssign: true}, time.Hour)
	issue := h.AddIssue(3, "A")
	issue.Closed = true
	h.PRs[5] = &classify.PRFacts{Number: 5}

	a := &workflow.QueueItem{ID: "A", IssueNumber: 3, PRNumber: 5, State: workflow.StatePROpen}
	_, err := h.Engine.Step(h.Ctx, a, &workflow.Cycle{Items: []*workflow.QueueItem{a}})
	require.NoError(t, err)
	require.Equal(t, workflow.StateCompleted, a.State)

	st, err := h.Cooldown.Status(h.Ctx)
	require.NoError(t, err)
	require.False(t, st.CanAssign)
	require.Equal(t, "A", st.LastCompletion.ItemID)
	require.Empty(t, h.Source.GetPRCalls())
}

func TestEngineClosedQueuedIssueSkipsCooldown(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoAssign: true}, time.Hour)
	issue := h.AddIssue(3, "A")
	issue.Closed = true

	a := workflow.NewQueueItem("A", 3)
	_, err := h.Engine.Step(h.Ctx, a, &workflow.Cycle{Items: []*workflow.QueueItem{a}})
	require.NoError(t, err)
	require.Equal(t, workflow.StateCompleted, a.State)
	require.True(t, h.Cooldown.CanAssign(h.Ctx))
	require.Empty(t, h.Agent.AssignCalls())
}

func TestEngineExternalMergeStartsCooldown(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{}, time.Hour)
	issue := h.AddIssue(3, "A")
	issue.Assignees = []string{"Copilot"}
	h.PRs[5] = &classify.PRFacts{Number: 5, Merged: true}

	a := &workflow.QueueItem{ID: "A", IssueNumber: 3, PRNumber: 5, State: workflow.StateApproved}
	_, err := h.Engine.Step(h.Ctx, a, &workflow.Cycle{Items: []*workflow.QueueItem{a}})
	require.NoError(t, err)
	require.Equal(t, workflow.StateMerged, a.State)
	require.False(t, h.Cooldown.CanAssign(h.Ctx))
	require.Empty(t, h.Agent.MergeCalls())
}

func TestEngineFailedActionKeepsState(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoAssign: true}, 0)
	h.AddIssue(1, "A")
	h.Agent.AssignFunc = func(ctx context.Context, issueNumber int, instructions, targetBranch string) error {
		return errors.New("gh: HTTP 502")
	}

	a := workflow.NewQueueItem("A", 1)
	out, err := h.Engine.Step(h.Ctx, a, &workflow.Cycle{Items: []*workflow.QueueItem{a}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "assign")
	require.Equal(t, workflow.StateQueued, a.State)
	require.Empty(t, a.LastAction)
	require.False(t, out.Changed())

	history, err := h.History.Get(h.Ctx, "A")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestEngineTerminalItemIsLeftAlone(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoAssign: true, AutoMerge: true}, 0)
	for _, st := range []workflow.State{workflow.StateMerged, workflow.StateCompleted} {
		it := &workflow.QueueItem{ID: "A", IssueNumber: 1, PRNumber: 2, State: st}
		out, err := h.Engine.Step(h.Ctx, it, &workflow.Cycle{Items: []*workflow.QueueItem{it}})
		require.NoError(t, err)
		require.Equal(t, st, it.State)
		require.False(t, out.Changed())
	}
	require.Empty(t, h.Source.GetIssueCalls())
}

func TestEngineResolvesIssueNumberFromItemID(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{}, 0)
	h.AddIssue(15, "[PROJ-9] Add retry to uploader")

	it := workflow.NewQueueItem("PROJ-9", 0)
	_, err := h.Engine.Step(h.Ctx, it, &workflow.Cycle{Items: []*workflow.QueueItem{it}})
	require.NoError(t, err)
	require.Equal(t, 15, it.IssueNumber)
	require.Equal(t, "[PROJ-9] Add retry to uploader", it.IssueTitle)

	missing := workflow.NewQueueItem("PROJ-404", 0)
	out, err := h.Engine.Step(h.Ctx, missing, &workflow.Cycle{Items: []*workflow.QueueItem{missing}})
	require.NoError(t, err)
	require.Equal(t, workflow.StateQueued, missing.State)
	require.False(t, out.Changed())
}

func TestEngineAdoptsExternallyAssignedIssue(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{}, 0)
	issue := h.AddIssue(4, "A")
	issue.Assignees = []string{"Copilot"}

	a := workflow.NewQueueItem("A", 4)
	out, err := h.Engine.Step(h.Ctx, a, &workflow.Cycle{Items: []*workflow.QueueItem{a}})
	require.NoError(t, err)
	require.Equal(t, workflow.StateAssigned, a.State)
	require.Equal(t, []string{"adopt-assigned"}, out.Rules)
	require.Empty(t, h.Agent.AssignCalls())
}

func TestEngineAdoptionWaitsForInFlightItem(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{}, 0)
	first := h.AddIssue(1, "A")
	second := h.AddIssue(2, "B")
	second.Assignees = []string{"Copilot"}

	a := &workflow.QueueItem{ID: "A", IssueNumber: 1, State: workflow.StateAssigned}
	b := workflow.NewQueueItem("B", 2)
	items := []*workflow.QueueItem{a, b}

	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateAssigned, a.State)
	require.Equal(t, workflow.StateQueued, b.State)

	first.Closed = true
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateCompleted, a.State)
	require.Equal(t, workflow.StateAssigned, b.State)
	require.Empty(t, h.Agent.AssignCalls())
}

func TestEngineAdoptsOneAssignedIssuePerCycle(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{}, 0)
	var items []*workflow.QueueItem
	for i, id := range []string{"A", "B"} {
		issue := h.AddIssue(i+1, id)
		issue.Assignees = []string{"Copilot"}
		items = append(items, workflow.NewQueueItem(id, i+1))
	}

	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateAssigned, items[0].State)
	require.Equal(t, workflow.StateQueued, items[1].State)
}

func TestEngineFollowUpReviewPrecedesMerge(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoAssign: true, AutoMerge: true}, 0)
	h.AddIssue(1, "A")
	a := workflow.NewQueueItem("A", 1)
	items := []*workflow.QueueItem{a}

	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateAssigned, a.State)

	h.OpenPR(1, 10)
	h.Update(10, func(pr *classify.PRFacts) { pr.Draft = false })
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateReviewRequested, a.State)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateReviewing, a.State)
	require.Len(t, h.Agent.RequestReviewCalls(), 2)

	h.Advance(5 * time.Minute)
	h.AgentReviews(10, "```suggestion\nfoo()\n```")
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateApplyingChanges, a.State)
	require.Len(t, h.Agent.CommentApplyChangesCalls(), 1)

	// The first review's signature predates the follow-up request and must
	// not count as its answer.
	h.Advance(10 * time.Minute)
	h.AgentPushes(10, "head-2")
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateReviewing, a.State)
	require.Len(t, h.Agent.RequestReviewCalls(), 3)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateReviewing, a.State)
	require.Empty(t, h.Agent.MergeCalls())

	h.Advance(5 * time.Minute)
	h.AgentReviews(10)
	h.Advance(3 * time.Minute)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateMerged, a.State)
	require.Len(t, h.Agent.MergeCalls(), 1)
	require.Len(t, h.Agent.RequestReviewCalls(), 3)
	require.Len(t, h.Agent.CommentApplyChangesCalls(), 1)
}

func TestEngineSecondChangeRequestDoesNotReopenCycle(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoMerge: true}, 0)
	issue := h.AddIssue(7, "A")
	issue.Assignees = []string{"Copilot"}
	h.PRs[42] = &classify.PRFacts{Number: 42, Draft: true, HeadSHA: "head-2"}
	require.NoError(t, h.Tracker.MarkDone(h.Ctx, 42, "A"))
	h.Update(42, func(pr *classify.PRFacts) {
		pr.IssueComments = []classify.Comment{
			{Body: "@copilot apply changes based on the review comments in this thread", At: h.Now().Add(-time.Hour)},
			{Body: "Copilot finished work on behalf of @octocat", At: h.Now().Add(-30 * time.Minute)},
		}
		pr.Reviews = []classify.Review{{State: classify.ReviewChangesRequested, Author: "octocat", SubmittedAt: h.Now()}}
	})

	a := &workflow.QueueItem{ID: "A", IssueNumber: 7, PRNumber: 42, State: workflow.StateApplyingChanges}
	items := []*workflow.QueueItem{a}
	for range 3 {
		requireNoErrors(t, h.StepAll(items))
		h.Advance(time.Minute)
	}
	require.Equal(t, workflow.StateApplyingChanges, a.State)
	require.Empty(t, h.Agent.CommentApplyChangesCalls())
	require.Empty(t, h.Agent.RequestReviewCalls())

	// A human approves: the item moves on without another agent round.
	h.Update(42, func(pr *classify.PRFacts) {
		pr.Reviews = append(pr.Reviews, classify.Review{State: classify.ReviewApproved, Author: "octocat", SubmittedAt: h.Now()})
	})
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateApproved, a.State)
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateMerged, a.State)
	require.Empty(t, h.Agent.RequestReviewCalls())
}

func TestEngineFollowUpReviewIsRequestedOnce(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{}, 0)
	issue := h.AddIssue(7, "A")
	issue.Assignees = []string{"Copilot"}
	h.PRs[42] = &classify.PRFacts{Number: 42, Draft: true, HeadSHA: "head-2"}
	require.NoError(t, h.Tracker.MarkDone(h.Ctx, 42, "A"))
	h.Update(42, func(pr *classify.PRFacts) {
		pr.IssueComments = []classify.Comment{
			{Body: "@copilot apply changes based on the review comments in this thread", At: h.Now().Add(-time.Hour)},
			{Body: "Copilot finished work on behalf of @octocat", At: h.Now().Add(-30 * time.Minute)},
		}
	})

	a := &workflow.QueueItem{ID: "A", IssueNumber: 7, PRNumber: 42, State: workflow.StateApplyingChanges}
	items := []*workflow.QueueItem{a}
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateReviewing, a.State)
	require.Len(t, h.Agent.RequestReviewCalls(), 1)

	// The follow-up review asks for more changes; the cycle stays closed.
	h.Advance(5 * time.Minute)
	h.AgentReviews(42, "one more thing")
	for range 3 {
		requireNoErrors(t, h.StepAll(items))
		h.Advance(time.Minute)
	}
	require.Equal(t, workflow.StateReviewing, a.State)
	require.Len(t, h.Agent.RequestReviewCalls(), 1)
	require.Empty(t, h.Agent.CommentApplyChangesCalls())
	require.Len(t, h.Agent.MarkReadyCalls(), 1)
}

func TestEngineSkipFinalReview(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{AutoMerge: true, SkipFinalReview: true}, 0)
	issue := h.AddIssue(7, "A")
	issue.Assignees = []string{"Copilot"}
	h.PRs[42] = &classify.PRFacts{Number: 42, Draft: true, HeadSHA: "head-2"}
	require.NoError(t, h.Tracker.MarkDone(h.Ctx, 42, "A"))
	h.Update(42, func(pr *classify.PRFacts) {
		pr.IssueComments = []classify.Comment{
			{Body: "@copilot apply changes based on the review comments in this thread", At: h.Now().Add(-time.Hour)},
			{Body: "Copilot finished work on behalf of @octocat", At: h.Now().Add(-30 * time.Minute)},
		}
	})

	a := &workflow.QueueItem{ID: "A", IssueNumber: 7, PRNumber: 42, State: workflow.StateApplyingChanges}
	items := []*workflow.QueueItem{a}
	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateApproved, a.State)
	require.Len(t, h.Agent.MarkReadyCalls(), 1)

	requireNoErrors(t, h.StepAll(items))
	require.Equal(t, workflow.StateMerged, a.State)
	require.Empty(t, h.Agent.RequestReviewCalls())
}

func TestEngineDoesNotBindPROwnedByAnotherItem(t *testing.T) {
	h := testutil.NewHarness(t, workflow.Config{}, 0)
	issue := h.AddIssue(1, "A")
	issue.Assignees = []string{"Copilot"}
	h.OpenPR(1, 10)

	other := &workflow.QueueItem{ID: "B", IssueNumber: 2, PRNumber: 10, State: workflow.StateMerged}
	a := &workflow.QueueItem{ID: "A", IssueNumber: 1, State: workflow.StateAssigned}
	_, err := h.Engine.Step(h.Ctx, a, &workflow.Cycle{Items: []*workflow.QueueItem{other, a}})
	require.NoError(t, err)
	require.Equal(t, workflow.StateAssigned, a.State)
	require.Equal(t, 0, a.PRNumber)
}
