package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/lockfile"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/project"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/status"
)

// ErrNotRunning is returned by Stop when no daemon holds the project lock.
var ErrNotRunning = errors.New("daemon is not running")

// OutputFile receives the stdout and stderr of a detached daemon.
const OutputFile = "daemon.out"

// StartDetached re-executes the current binary with args in a new session
// and returns the child's PID. It fails if a daemon is already running.
func StartDetached(proj *project.Project, args []string) (int, error) {
	if pid := lockfile.Holder(proj.LockPath()); pid != 0 {
		return 0, &lockfile.LockedError{PID: pid}
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to resolve executable: %w", err)
	}

	outPath := filepath.Join(proj.Root, project.ConfigDir, OutputFile)
	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open daemon output: %w", err)
	}
	defer out.Close()

	cmd := exec.Command(exe, args...)
	cmd.Dir = proj.Root
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Stdin = nil
	configureDetached(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		logging.Warn("failed to release daemon process", "pid", pid, "error", err)
	}
	logging.Info("daemon started in background", "pid", pid)
	return pid, nil
}

// WaitForStart waits until the lock file names a live process or timeout passes.
func WaitForStart(proj *project.Project, timeout time.Duration) (int, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if pid := lockfile.Holder(proj.LockPath()); pid != 0 {
			return pid, true
		}
		if time.Now().After(deadline) {
			return 0, false
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// StopResult describes what Stop did.
type StopResult struct {
	PID int
	// Stopped is true when the process exited before the timeout.
	Stopped bool
	// CleanedStale is true when only a stale lock or snapshot was removed.
	CleanedStale bool
}

// Stop sends a termination request to the running daemon and waits up to
// timeout for it to exit. When no live daemon holds the lock, stale lock and
// running snapshots are cleaned up and ErrNotRunning is returned.
func Stop(proj *project.Project, timeout time.Duration) (*StopResult, error) {
	pid := lockfile.Holder(proj.LockPath())
	if pid == 0 {
		res := &StopResult{}
		removed, err := lockfile.RemoveStale(proj.LockPath())
		if err != nil {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
		res.CleanedStale = removed
		if snap, err := status.Read(proj.StatusPath()); err == nil && snap.Running {
			snap.Running = false
			snap.Message = "Daemon not running (stale status cleared)"
			if err := status.NewWriter(proj.StatusPath()).Write(snap); err != nil {
				return nil, err
			}
			res.CleanedStale = true
		}
		return res, ErrNotRunning
	}

	if err := terminate(pid); err != nil {
		return nil, fmt.Errorf("failed to signal daemon (pid %d): %w", pid, err)
	}
	logging.Info("sent stop request to daemon", "pid", pid)

	res := &StopResult{PID: pid}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !lockfile.IsRunning(pid) {
			res.Stopped = true
			return res, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return res, nil
}

// State is the liveness view used by the status command.
type State struct {
	// PID is the live lock holder, or 0.
	PID      int              `json:"pid"`
	Running  bool             `json:"running"`
	Snapshot *status.Snapshot `json:"snapshot"`
	// Stale is true when the snapshot claims running but no process holds the lock.
	Stale bool `json:"stale"`
}

// Inspect combines the lock holder and the last snapshot.
func Inspect(proj *project.Project) (*State, error) {
	snap, err := status.Read(proj.StatusPath())
	if err != nil {
		return nil, err
	}
	pid := lockfile.Holder(proj.LockPath())
	return &State{
		PID:      pid,
		Running:  pid != 0,
		Snapshot: snap,
		Stale:    pid == 0 && snap.Running,
	}, nil
}
