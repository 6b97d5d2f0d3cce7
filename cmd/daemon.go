package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/daemon"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/github"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/project"
	orchsignal "github.com/WoDeep/copilot-coding-agent-orchestrator/internal/signal"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/telemetry"
)

var (
	flagDetach      bool
	flagStopTimeout time.Duration
	flagWatch       bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start, stop and inspect the orchestrator daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the polling daemon",
	Long: `Run the polling daemon for the current project. The daemon processes the
queue every poll interval until SIGINT/SIGTERM or "orch daemon stop".

Only one daemon may run per project. With --detach the daemon is started in
a new session and its output goes to .orch/daemon.out.`,
	Args: cobra.NoArgs,
	RunE: runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon liveness and the last status snapshot",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

func init() {
	daemonStartCmd.Flags().BoolVarP(&flagDetach, "detach", "d", false, "run in the background")
	daemonStopCmd.Flags().DurationVar(&flagStopTimeout, "timeout", 15*time.Second, "how long to wait for the daemon to exit")
	daemonStatusCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "redraw whenever the snapshot changes")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}

// newDaemon wires the daemon to the gh-backed client and the configured
// telemetry. The returned function flushes telemetry.
func newDaemon(ctx context.Context, proj *project.Project) (*daemon.Daemon, func(), error) {
	cfg := proj.Config
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Stdout:   cfg.Telemetry.Stdout,
		Endpoint: cfg.Telemetry.Endpoint,
	}, "orch", Version)
	if err != nil {
		return nil, nil, err
	}
	flush := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logging.Warn("telemetry shutdown failed", "error", err)
		}
	}

	metrics, err := telemetry.NewMetrics(telemetry.Meter())
	if err != nil {
		flush()
		return nil, nil, err
	}

	client := github.NewClient(cfg.GitHub.RepoSlug())
	d := daemon.New(proj, daemon.Options{
		Store:   proj.DB,
		Source:  client,
		Agent:   client,
		Prober:  client,
		Metrics: metrics,
		Out:     os.Stdout,
	})
	return d, flush, nil
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	proj, err := findProject(GetContext())
	if err != nil {
		return err
	}
	defer proj.Close()

	if flagDetach {
		return startDetached(proj)
	}

	d, flush, err := newDaemon(GetContext(), proj)
	if err != nil {
		return err
	}
	defer flush()

	// Flip the running flag first so the idle wait ends within one slice.
	ctx, cancel := orchsignal.WithSignalCancelFunc(GetContext(), func(os.Signal) {
		d.Stop()
	})
	defer cancel()

	cfg := proj.Config
	fmt.Printf("Orchestrating %s (poll %s, cooldown %s, %d queued)\n",
		cfg.GitHub.RepoSlug(), cfg.Automation.GetPollInterval(), cfg.Automation.GetCooldown(), len(cfg.Queue.Items))
	fmt.Println("Press Ctrl+C to stop")

	if err := d.Run(ctx); err != nil {
		return err
	}
	fmt.Println("Daemon stopped")
	return nil
}

func startDetached(proj *project.Project) error {
	pid, err := daemon.StartDetached(proj, []string{"daemon", "start", "--root", proj.Root})
	if err != nil {
		return err
	}
	if _, ok := daemon.WaitForStart(proj, 10*time.Second); !ok {
		return fmt.Errorf("daemon (pid %d) did not take the lock; see %s", pid, proj.LogPath())
	}
	fmt.Printf("Daemon started (pid %d)\n", pid)
	fmt.Printf("  Log:    %s\n", proj.LogPath())
	fmt.Printf("  Status: orch daemon status\n")
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	proj, err := findProject(GetContext())
	if err != nil {
		return err
	}
	defer proj.Close()

	res, err := daemon.Stop(proj, flagStopTimeout)
	if errors.Is(err, daemon.ErrNotRunning) {
		if res.CleanedStale {
			fmt.Println("Daemon is not running (cleaned up stale lock/status)")
		} else {
			fmt.Println("Daemon is not running")
		}
		return nil
	}
	if err != nil {
		return err
	}
	if !res.Stopped {
		return fmt.Errorf("daemon (pid %d) still running after %s", res.PID, flagStopTimeout)
	}
	fmt.Printf("Daemon stopped (pid %d)\n", res.PID)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	proj, err := findProject(ctx)
	if err != nil {
		return err
	}
	defer proj.Close()

	show := func() error {
		st, err := daemon.Inspect(proj)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(st)
		}
		renderStatus(os.Stdout, st, proj.Config.Queue.Items)
		return nil
	}

	if err := show(); err != nil {
		return err
	}
	if !flagWatch {
		return nil
	}

	return project.WatchFile(ctx, proj.StatusPath(), project.DefaultDebounce, func() {
		if !jsonOutput() {
			fmt.Print("\033[H\033[2J")
		}
		if err := show(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	})
}
