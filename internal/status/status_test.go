package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
)

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := NewWriter(path)
	w.SetNowFunc(func() time.Time { return now })

	last := now.Add(-time.Minute)
	snap := &Snapshot{
		Running:   true,
		PID:       4242,
		CycleID:   "c-1",
		LastCycle: &last,
		Actions:   []string{"Assigned issue to agent"},
		Errors:    []string{},
		Message:   "Cycle complete",
		Cooldown: Cooldown{
			MinutesRemaining: 12,
			LastCompletion:   &Completion{ItemID: "A", CompletedAt: now.Add(-48 * time.Minute)},
		},
		QueueStatus: QueueStatus{Total: 2, InProgress: 1, Queued: 1},
		ItemStates: map[string]ItemState{
			"A": {
				State:       "reviewing",
				IssueNumber: 1,
				PRNumber:    10,
				ReviewDone:  true,
				WorkflowHistory: []db.HistoryEntry{
					{Timestamp: last, Event: "Requested review", State: "reviewing", PRNumber: 10},
				},
			},
		},
		ReviewTracker: ReviewTracker{TrackedPRs: []int{10}},
	}
	require.NoError(t, w.Write(snap))

	got, err := Read(path)
	require.NoError(t, err)
	require.True(t, got.UpdatedAt.Equal(now))
	require.Equal(t, snap.PID, got.PID)
	require.Equal(t, 12, got.Cooldown.MinutesRemaining)
	require.Equal(t, "A", got.Cooldown.LastCompletion.ItemID)
	require.Equal(t, []int{10}, got.ReviewTracker.TrackedPRs)
	require.True(t, got.ItemStates["A"].ReviewDone)
	require.Len(t, got.ItemStates["A"].WorkflowHistory, 1)

	// No temp files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSnapshotFieldNames(t *testing.T) {
	data, err := json.Marshal(&Snapshot{})
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"running", "pid", "updated_at", "last_cycle", "actions", "errors", "message", "cooldown", "queue_status", "item_states", "review_tracker"} {
		require.Contains(t, raw, key)
	}
	cooldown := raw["cooldown"].(map[string]any)
	require.Contains(t, cooldown, "can_assign")
	require.Contains(t, cooldown, "minutes_remaining")
}

func TestReadTolerant(t *testing.T) {
	dir := t.TempDir()

	s, err := Read(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	require.False(t, s.Running)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"running": tr`), 0644))
	s, err = Read(corrupt)
	require.NoError(t, err)
	require.False(t, s.Running)
}

func TestHandler(t *testing.T) {
	snap := &Snapshot{Running: true, PID: 7, Message: "ok"}
	srv := httptest.NewServer(NewHandler(func() (*Snapshot, error) { return snap, nil }))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, 7, got.PID)

	resp2, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	snap.Running = false
	resp3, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp3.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp3.StatusCode)

	resp4, err := http.Post(srv.URL+"/status", "application/json", nil)
	require.NoError(t, err)
	resp4.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp4.StatusCode)
}
