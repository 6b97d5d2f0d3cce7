package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run exactly one workflow cycle in the foreground",
	Long: `Run a single cycle over the queue and exit. The daemon lock is held for the
duration, so this fails while a daemon is running.`,
	Args: cobra.NoArgs,
	RunE: runCycle,
}

func runCycle(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	proj, err := findProject(ctx)
	if err != nil {
		return err
	}
	defer proj.Close()

	d, flush, err := newDaemon(ctx, proj)
	if err != nil {
		return err
	}
	defer flush()

	if err := d.RunOnce(ctx); err != nil {
		return err
	}

	snap, err := d.Snapshot()
	if err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(snap)
	}
	fmt.Println(snap.Message)
	return nil
}
