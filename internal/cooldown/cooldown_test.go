package cooldown_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/cooldown"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/testutil"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCanAssignWithoutCompletion(t *testing.T) {
	c := cooldown.New(testutil.NewMemoryStore(), time.Hour)
	require.True(t, c.CanAssign(context.Background()))

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	require.True(t, st.CanAssign)
	require.Nil(t, st.LastCompletion)
}

func TestCooldownElapses(t *testing.T) {
	ctx := context.Background()
	now := t0
	c := cooldown.New(testutil.NewMemoryStore(), 60*time.Minute)
	c.SetNowFunc(func() time.Time { return now })

	require.NoError(t, c.RecordCompletion(ctx, "A"))

	tests := []struct {
		after   time.Duration
		want    bool
		minutes int
	}{
		{after: 0, want: false, minutes: 60},
		{after: 30 * time.Minute, want: false, minutes: 30},
		{after: 30*time.Minute + 30*time.Second, want: false, minutes: 30},
		{after: 59 * time.Minute, want: false, minutes: 1},
		{after: 59*time.Minute + 30*time.Second, want: false, minutes: 1},
		{after: 60*time.Minute - time.Second, want: false, minutes: 1},
		{after: 60 * time.Minute, want: true},
		{after: 61 * time.Minute, want: true},
	}
	for _, tt := range tests {
		now = t0.Add(tt.after)
		st, err := c.Status(ctx)
		require.NoError(t, err)
		require.Equal(t, tt.want, st.CanAssign, "after %s", tt.after)
		require.Equal(t, tt.minutes, st.MinutesRemaining, "after %s", tt.after)
		require.Equal(t, tt.want, c.CanAssign(ctx))
		require.Equal(t, "A", st.LastCompletion.ItemID)
	}
}

func TestRecordCompletionNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	now := t0
	c := cooldown.New(store, time.Hour)
	c.SetNowFunc(func() time.Time { return now })

	require.NoError(t, c.RecordCompletion(ctx, "A"))

	now = t0.Add(-10 * time.Minute)
	require.NoError(t, c.RecordCompletion(ctx, "B"))

	rec, err := store.GetCooldown(ctx)
	require.NoError(t, err)
	require.Equal(t, "B", rec.ItemID)
	require.True(t, rec.CompletedAt.Equal(t0))

	now = t0.Add(5 * time.Minute)
	require.NoError(t, c.RecordCompletion(ctx, "C"))
	rec, err = store.GetCooldown(ctx)
	require.NoError(t, err)
	require.True(t, rec.CompletedAt.Equal(t0.Add(5*time.Minute)))
}

func TestZeroDurationNeverBlocks(t *testing.T) {
	ctx := context.Background()
	c := cooldown.New(testutil.NewMemoryStore(), -time.Minute)
	require.Equal(t, time.Duration(0), c.Duration())
	require.NoError(t, c.RecordCompletion(ctx, "A"))
	require.True(t, c.CanAssign(ctx))
}

func TestStoreErrorDeniesAssignment(t *testing.T) {
	store := &testutil.CooldownStoreMock{
		GetCooldownFunc: func(ctx context.Context) (*db.CooldownRecord, error) {
			return nil, errors.New("database is locked")
		},
	}
	c := cooldown.New(store, time.Hour)
	require.False(t, c.CanAssign(context.Background()))

	_, err := c.Status(context.Background())
	require.ErrorContains(t, err, "database is locked")

	err = c.RecordCompletion(context.Background(), "A")
	require.Error(t, err)
	require.Empty(t, store.SetCooldownCalls())
}

func TestRecordCompletionWriteFailure(t *testing.T) {
	store := &testutil.CooldownStoreMock{
		SetCooldownFunc: func(ctx context.Context, rec db.CooldownRecord) error {
			return errors.New("disk full")
		},
	}
	c := cooldown.New(store, time.Hour)
	c.SetNowFunc(func() time.Time { return t0 })

	err := c.RecordCompletion(context.Background(), "A")
	require.ErrorContains(t, err, "disk full")
	require.Len(t, store.SetCooldownCalls(), 1)
	require.Equal(t, "A", store.SetCooldownCalls()[0].Rec.ItemID)
	require.True(t, store.SetCooldownCalls()[0].Rec.CompletedAt.Equal(t0))
}
