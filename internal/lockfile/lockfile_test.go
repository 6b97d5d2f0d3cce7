package lockfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Far above any real pid_max.
const deadPID = 1 << 30

func TestAcquireWritesInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".orch", "daemon.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	info, err := ReadInfo(path)
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), info.PID)
	require.False(t, info.StartedAt.IsZero())
	require.Equal(t, os.Getpid(), Holder(path))
}

func TestSecondAcquireFailsWithHolderPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	_, err = Acquire(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrLocked))

	var lockErr *LockedError
	require.True(t, errors.As(err, &lockErr))
	require.Equal(t, os.Getpid(), lockErr.PID)
	require.Contains(t, err.Error(), "already running")
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")
	data, err := json.Marshal(Info{PID: deadPID})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), ReadPID(path))
	require.NoError(t, lock.Release())
}

func TestReleaseRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.Equal(t, 0, ReadPID(path))

	// The lock can be taken again.
	lock, err = Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestReleaseKeepsSuccessorRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)

	// Another daemon recorded itself after taking over the lock.
	data, err := json.Marshal(Info{PID: deadPID})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	require.NoError(t, lock.Release())
	require.Equal(t, deadPID, ReadPID(path))
}

func TestReleaseUnlocksBeforeRemoving(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	f := lock.f
	require.NoError(t, lock.Release())

	// The descriptor that held the flock is closed, not just unlinked.
	_, err = f.Stat()
	require.ErrorIs(t, err, os.ErrClosed)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestReadInfoFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantPID int
		wantErr bool
	}{
		{name: "json", content: `{"pid":4321,"started_at":"2026-03-01T12:00:00Z"}`, wantPID: 4321},
		{name: "plain pid", content: "98765\n", wantPID: 98765},
		{name: "garbage", content: "not a pid", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".lock")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			info, err := ReadInfo(path)
			if tt.wantErr {
				require.Error(t, err)
				require.Equal(t, 0, ReadPID(path))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantPID, info.PID)
		})
	}
}

func TestRemoveStale(t *testing.T) {
	dir := t.TempDir()

	removed, err := RemoveStale(filepath.Join(dir, "missing.lock"))
	require.NoError(t, err)
	require.False(t, removed)

	stale := filepath.Join(dir, "stale.lock")
	require.NoError(t, os.WriteFile(stale, []byte("1073741824"), 0644))
	removed, err = RemoveStale(stale)
	require.NoError(t, err)
	require.True(t, removed)

	live := filepath.Join(dir, "live.lock")
	lock, err := Acquire(live)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()
	removed, err = RemoveStale(live)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestIsRunning(t *testing.T) {
	require.True(t, IsRunning(os.Getpid()))
	require.False(t, IsRunning(0))
	require.False(t, IsRunning(-1))
	require.False(t, IsRunning(deadPID))
}
