package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/project"
	orchsignal "github.com/WoDeep/copilot-coding-agent-orchestrator/internal/signal"
)

// Version is set at build time.
var Version = "dev"

var (
	// rootCtx holds the signal-cancellable context for the application
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "orch",
	Short: "Copilot coding agent orchestrator",
	Long: `orch feeds queued issues to the GitHub Copilot coding agent one at a time,
requests reviews, relays requested changes and merges the result.

State lives in .orch/ next to the repository checkout: config.toml holds the
queue and automation settings, tracking.db the durable runtime records.`,
	SilenceUsage:  true,
	Version:       Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = orchsignal.WithSignalCancel(context.Background())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns the root context that is cancelled on SIGINT/SIGTERM.
// This should be used by all subcommands instead of context.Background().
func GetContext() context.Context {
	if rootCtx == nil {
		return context.Background()
	}
	return rootCtx
}

func initConfig() {
	viper.SetEnvPrefix("ORCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("root", "", "project directory (default: search upward from cwd)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(queueCmd)
}

// findProject locates the project from --root / ORCH_ROOT or the cwd.
func findProject(ctx context.Context) (*project.Project, error) {
	proj, err := project.Find(ctx, viper.GetString("root"))
	if err != nil {
		return nil, fmt.Errorf("not in a project directory: %w", err)
	}
	return proj, nil
}

func jsonOutput() bool {
	return viper.GetBool("json")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
