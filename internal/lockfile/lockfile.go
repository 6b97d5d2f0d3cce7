// Package lockfile guarantees a single daemon per project. The lock file holds
// the owner's PID and is protected by an exclusive flock, so a crashed daemon
// never blocks the next start.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// ErrLocked is returned by Acquire when another live process holds the lock.
var ErrLocked = errors.New("daemon lock already held by another process")

// LockedError carries the PID of the process holding the lock.
type LockedError struct {
	PID int
}

func (e *LockedError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("daemon already running (pid %d)", e.PID)
	}
	return "daemon already running"
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// Info is the lock file content.
type Info struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Lock is a held daemon lock.
type Lock struct {
	path string
	f    *os.File
}

// Acquire takes the lock at path and records the current process in it.
// If the file names a process that is gone, the stale record is replaced.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		if errors.Is(err, errWouldBlock) {
			info, _ := ReadInfo(path)
			lockErr := &LockedError{}
			if info != nil {
				lockErr.PID = info.PID
			}
			return nil, lockErr
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	if prev, err := ReadInfo(path); err == nil && prev.PID != os.Getpid() {
		logging.Warn("replacing stale daemon lock", "path", path, "pid", prev.PID, "running", IsRunning(prev.PID))
	}

	info := Info{PID: os.Getpid(), StartedAt: time.Now().UTC()}
	data, err := json.Marshal(info)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to truncate lock file: %w", err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to sync lock file: %w", err)
	}

	return &Lock{path: path, f: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock, then removes the lock file unless another process
// has already recorded itself in it. It is safe to call twice.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	var errs []error
	if err := flockUnlock(l.f); err != nil {
		errs = append(errs, err)
	}
	if err := l.f.Close(); err != nil {
		errs = append(errs, err)
	}
	l.f = nil

	if info, err := ReadInfo(l.path); err == nil && info.PID != os.Getpid() {
		logging.Debug("lock file taken over, leaving it in place", "path", l.path, "pid", info.PID)
		return errors.Join(errs...)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ReadInfo reads the lock file. A bare PID is accepted as well as JSON.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err == nil {
		return &info, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid lock file format: %s", path)
	}
	return &Info{PID: pid}, nil
}

// ReadPID returns the PID recorded in the lock file, or 0 if there is no
// readable lock file.
func ReadPID(path string) int {
	info, err := ReadInfo(path)
	if err != nil {
		return 0
	}
	return info.PID
}

// Holder returns the PID of the live process holding the lock at path, or 0.
func Holder(path string) int {
	pid := ReadPID(path)
	if pid == 0 || !IsRunning(pid) {
		return 0
	}
	return pid
}

// RemoveStale deletes the lock file if the process it names is gone.
// It reports whether a file was removed.
func RemoveStale(path string) (bool, error) {
	pid := ReadPID(path)
	if pid == 0 {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return false, nil
		}
	} else if IsRunning(pid) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	logging.Info("removed stale daemon lock", "path", path, "pid", pid)
	return true, nil
}
