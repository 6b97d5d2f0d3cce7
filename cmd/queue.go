package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/project"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/status"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/workflow"
)

var (
	flagQueueIssue int
	flagQueueTitle string
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the item queue",
	Long: `Manage the ordered queue in .orch/config.toml. A running daemon picks up
changes at the start of its next cycle.`,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued items with their last known state",
	Args:  cobra.NoArgs,
	RunE:  runQueueList,
}

var queueAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Append an item to the queue",
	Long: `Append an item to the queue. The id is a ticket tag found in the issue
title (e.g. "TC-P-01") or "#<n>" for an issue number.

Example:
  orch queue add TC-P-01 --issue 42
  orch queue add '#57'`,
	Args: cobra.ExactArgs(1),
	RunE: runQueueAdd,
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an item from the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editQueue(func(q *project.QueueConfig) (string, error) {
			return fmt.Sprintf("Removed %s", args[0]), q.Remove(args[0])
		})
	},
}

var queueMoveUpCmd = &cobra.Command{
	Use:   "move-up <id>",
	Short: "Move an item one position earlier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editQueue(func(q *project.QueueConfig) (string, error) {
			return fmt.Sprintf("Moved %s up", args[0]), q.MoveUp(args[0])
		})
	},
}

var queueMoveDownCmd = &cobra.Command{
	Use:   "move-down <id>",
	Short: "Move an item one position later",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editQueue(func(q *project.QueueConfig) (string, error) {
			return fmt.Sprintf("Moved %s down", args[0]), q.MoveDown(args[0])
		})
	},
}

var queueImportCmd = &cobra.Command{
	Use:   "import-legacy <config.yaml>",
	Short: "Import the queue and settings from a YAML config",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueueImport,
}

func init() {
	queueAddCmd.Flags().IntVar(&flagQueueIssue, "issue", 0, "issue number (skips discovery by title)")
	queueAddCmd.Flags().StringVar(&flagQueueTitle, "title", "", "issue title to show until the first cycle")

	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueRemoveCmd)
	queueCmd.AddCommand(queueMoveUpCmd)
	queueCmd.AddCommand(queueMoveDownCmd)
	queueCmd.AddCommand(queueImportCmd)
}

// editQueue applies fn to the project's queue and saves the config.
func editQueue(fn func(q *project.QueueConfig) (string, error)) error {
	proj, err := findProject(GetContext())
	if err != nil {
		return err
	}
	defer proj.Close()

	msg, err := fn(&proj.Config.Queue)
	if err != nil {
		return err
	}
	if err := proj.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println(msg)
	return nil
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	return editQueue(func(q *project.QueueConfig) (string, error) {
		if err := q.Add(args[0], flagQueueIssue, flagQueueTitle); err != nil {
			return "", err
		}
		return fmt.Sprintf("Queued %s at position %d", args[0], len(q.Items)), nil
	})
}

type queueEntry struct {
	Position    int    `json:"position"`
	ID          string `json:"id"`
	IssueNumber int    `json:"issue_number,omitempty"`
	Title       string `json:"title,omitempty"`
	State       string `json:"state"`
	PRNumber    int    `json:"pr_number,omitempty"`
}

func runQueueList(cmd *cobra.Command, args []string) error {
	proj, err := findProject(GetContext())
	if err != nil {
		return err
	}
	defer proj.Close()

	snap, err := status.Read(proj.StatusPath())
	if err != nil {
		return err
	}

	q := proj.Config.Queue
	entries := make([]queueEntry, 0, len(q.Items))
	for i, id := range q.Items {
		e := queueEntry{
			Position:    i + 1,
			ID:          id,
			IssueNumber: q.IssueNumber(id),
			Title:       q.Title(id),
			State:       string(workflow.StateQueued),
		}
		if it, ok := snap.ItemStates[id]; ok {
			e.State = it.State
			e.PRNumber = it.PRNumber
			if e.IssueNumber == 0 {
				e.IssueNumber = it.IssueNumber
			}
			if e.Title == "" {
				e.Title = it.IssueTitle
			}
		}
		entries = append(entries, e)
	}

	if jsonOutput() {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "ID", "Issue", "PR", "State", "Title"})
	for _, e := range entries {
		tw.AppendRow(table.Row{e.Position, e.ID, numberOrDash(e.IssueNumber), numberOrDash(e.PRNumber), stateBadge(e.State), e.Title})
	}
	tw.Render()
	return nil
}

func runQueueImport(cmd *cobra.Command, args []string) error {
	proj, err := findProject(GetContext())
	if err != nil {
		return err
	}
	defer proj.Close()

	res, err := project.ImportLegacy(args[0], proj.Config)
	if err != nil {
		return err
	}
	if err := proj.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("Imported %d item(s) from %s\n", len(res.Added), args[0])
	for _, id := range res.Skipped {
		fmt.Printf("  skipped %s (already queued)\n", id)
	}
	return nil
}
