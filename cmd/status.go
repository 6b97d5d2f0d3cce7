package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/daemon"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/status"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/workflow"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	runningBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 1)
	stoppedBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("247")).Padding(0, 1)
	staleBadge   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Padding(0, 1)
)

var stateColors = map[workflow.State]lipgloss.Color{
	workflow.StateQueued:           "247",
	workflow.StateAssigned:         "81",
	workflow.StatePROpen:           "81",
	workflow.StateReviewRequested:  "75",
	workflow.StateReviewing:        "75",
	workflow.StateChangesRequested: "214",
	workflow.StateApplyingChanges:  "214",
	workflow.StateApproved:         "42",
	workflow.StateMerged:           "141",
	workflow.StateCompleted:        "141",
}

// stateBadge renders a workflow state name in its color.
func stateBadge(state string) string {
	c, ok := stateColors[workflow.State(state)]
	if !ok {
		return state
	}
	return lipgloss.NewStyle().Foreground(c).Render(state)
}

func liveBadge(st *daemon.State) string {
	switch {
	case st.Running:
		return runningBadge.Render(fmt.Sprintf("RUNNING pid %d", st.PID))
	case st.Stale:
		return staleBadge.Render("STALE")
	default:
		return stoppedBadge.Render("STOPPED")
	}
}

// orderedItemIDs returns the snapshot's items in queue order, followed by
// any the queue no longer lists.
func orderedItemIDs(items map[string]status.ItemState, order []string) []string {
	seen := make(map[string]bool, len(order))
	var ids []string
	for _, id := range order {
		if _, ok := items[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range items {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

func numberOrDash(n int) string {
	if n == 0 {
		return "-"
	}
	return "#" + strconv.Itoa(n)
}

func renderStatus(w io.Writer, st *daemon.State, order []string) {
	snap := st.Snapshot
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Daemon:"), liveBadge(st))
	if snap.UpdatedAt.IsZero() {
		fmt.Fprintln(w, dimStyle.Render("No status snapshot yet"))
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", labelStyle.Render("Updated:"),
		snap.UpdatedAt.Local().Format(time.DateTime), dimStyle.Render("("+time.Since(snap.UpdatedAt).Truncate(time.Second).String()+" ago)"))
	if snap.Message != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Message:"), snap.Message)
	}

	cd := snap.Cooldown
	switch {
	case cd.CanAssign:
		fmt.Fprintf(w, "%s ready\n", labelStyle.Render("Cooldown:"))
	default:
		fmt.Fprintf(w, "%s %d min remaining\n", labelStyle.Render("Cooldown:"), cd.MinutesRemaining)
	}
	if cd.LastCompletion != nil {
		fmt.Fprintf(w, "%s %s at %s\n", labelStyle.Render("Last completion:"),
			cd.LastCompletion.ItemID, cd.LastCompletion.CompletedAt.Local().Format(time.DateTime))
	}

	q := snap.QueueStatus
	fmt.Fprintf(w, "%s %d total, %d in progress, %d queued, %d completed\n\n",
		labelStyle.Render("Queue:"), q.Total, q.InProgress, q.Queued, q.Completed)

	if len(snap.ItemStates) > 0 {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"ID", "Issue", "PR", "State", "Review", "Last action"})
		for _, id := range orderedItemIDs(snap.ItemStates, order) {
			it := snap.ItemStates[id]
			review := ""
			if it.ReviewDone {
				review = "done"
			}
			last := it.LastAction
			if it.LastActionTime != nil {
				last = fmt.Sprintf("%s (%s)", last, it.LastActionTime.Local().Format("15:04"))
			}
			tw.AppendRow(table.Row{id, numberOrDash(it.IssueNumber), numberOrDash(it.PRNumber), stateBadge(it.State), review, last})
		}
		tw.Render()
	}

	if len(snap.Actions) > 0 {
		fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Last cycle actions:"))
		for _, a := range snap.Actions {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	if len(snap.Errors) > 0 {
		fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Recent errors:"))
		for _, e := range snap.Errors {
			fmt.Fprintf(w, "  %s\n", errStyle.Render(e))
		}
	}
}
