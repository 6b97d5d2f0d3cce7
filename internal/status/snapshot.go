// Package status is the daemon's status channel: a JSON snapshot file that
// is replaced atomically after every cycle, and an optional read-only HTTP
// view of it.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// Snapshot is the daemon status as last written.
type Snapshot struct {
	Running       bool                 `json:"running"`
	PID           int                  `json:"pid"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CycleID       string               `json:"cycle_id,omitempty"`
	LastCycle     *time.Time           `json:"last_cycle"`
	Actions       []string             `json:"actions"`
	Errors        []string             `json:"errors"`
	Message       string               `json:"message"`
	Cooldown      Cooldown             `json:"cooldown"`
	QueueStatus   QueueStatus          `json:"queue_status"`
	ItemStates    map[string]ItemState `json:"item_states"`
	ReviewTracker ReviewTracker        `json:"review_tracker"`
}

// Cooldown is the admission controller's state.
type Cooldown struct {
	CanAssign        bool        `json:"can_assign"`
	MinutesRemaining int         `json:"minutes_remaining"`
	LastCompletion   *Completion `json:"last_completion"`
}

// Completion is the last merge or completion that started the cooldown.
type Completion struct {
	ItemID      string    `json:"item_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// QueueStatus counts items by coarse state.
type QueueStatus struct {
	Total      int `json:"total"`
	InProgress int `json:"in_progress"`
	Queued     int `json:"queued"`
	Completed  int `json:"completed"`
}

// ItemState is one queue item as shown to operators.
type ItemState struct {
	State           string            `json:"state"`
	IssueNumber     int               `json:"issue_number,omitempty"`
	PRNumber        int               `json:"pr_number,omitempty"`
	IssueTitle      string            `json:"issue_title,omitempty"`
	LastAction      string            `json:"last_action,omitempty"`
	LastActionTime  *time.Time        `json:"last_action_time,omitempty"`
	ReviewDone      bool              `json:"review_done"`
	WorkflowHistory []db.HistoryEntry `json:"workflow_history,omitempty"`
}

// ReviewTracker lists PRs whose review cycle is closed.
type ReviewTracker struct {
	TrackedPRs []int `json:"tracked_prs"`
}

// Writer replaces the snapshot file atomically.
type Writer struct {
	path    string
	nowFunc func() time.Time
}

// NewWriter creates a writer for the snapshot at path.
func NewWriter(path string) *Writer {
	return &Writer{path: path, nowFunc: time.Now}
}

// SetNowFunc sets the clock. This is primarily for testing purposes.
func (w *Writer) SetNowFunc(f func() time.Time) {
	w.nowFunc = f
}

// Path returns the snapshot path.
func (w *Writer) Path() string {
	return w.path
}

// Write stamps s with the current time and replaces the snapshot file.
// Readers see either the previous or the new snapshot, never a partial one.
func (w *Writer) Write(s *Snapshot) error {
	s.UpdatedAt = w.nowFunc().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp status file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write status: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close status: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("failed to replace status: %w", err)
	}
	return nil
}

// Read loads the snapshot at path. A missing or unreadable snapshot yields an
// empty, not-running snapshot.
func Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		logging.Warn("ignoring corrupt status file", "path", path, "error", err)
		return &Snapshot{}, nil
	}
	return &s, nil
}
