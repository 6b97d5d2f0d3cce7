package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/history"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/testutil"
)

func TestRecorderKeepsNewestEntries(t *testing.T) {
	ctx := context.Background()
	r := history.New(testutil.NewMemoryStore())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.SetNowFunc(func() time.Time { return now })

	for i := range history.MaxEntries + 5 {
		now = now.Add(time.Second)
		require.NoError(t, r.Add(ctx, "A", fmt.Sprintf("event %d", i), "queued", 0))
	}
	require.NoError(t, r.Add(ctx, "B", "other", "assigned", 3))

	entries, err := r.Get(ctx, "A")
	require.NoError(t, err)
	require.Len(t, entries, history.MaxEntries)
	require.Equal(t, "event 5", entries[0].Event)
	require.Equal(t, fmt.Sprintf("event %d", history.MaxEntries+4), entries[len(entries)-1].Event)

	entries, err = r.Get(ctx, "B")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 3, entries[0].PRNumber)
	require.Equal(t, "assigned", entries[0].State)
}

func TestRecorderUnknownItem(t *testing.T) {
	r := history.New(testutil.NewMemoryStore())
	entries, err := r.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, entries)
}
