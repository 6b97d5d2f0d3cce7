// Package tracker is the loop breaker. Once a PR's review changes have been
// requested from the agent, the PR's review cycle is closed and it must never
// be pushed into another automatic review round.
package tracker

//go:generate moq -stub -out ../testutil/tracker_store_mock.go -pkg testutil . Store:TrackerStoreMock

import (
	"context"
	"fmt"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// Store persists loop-breaker entries.
type Store interface {
	MarkLoopBroken(ctx context.Context, e db.LoopBreakerEntry) error
	IsLoopBroken(ctx context.Context, prNumber int) (bool, error)
	ClearLoopBroken(ctx context.Context, prNumber int) error
	LoopBrokenEntries(ctx context.Context) ([]db.LoopBreakerEntry, error)
}

// Tracker records PRs whose review cycle is closed.
type Tracker struct {
	store   Store
	nowFunc func() time.Time
}

// New creates a tracker backed by store.
func New(store Store) *Tracker {
	return &Tracker{store: store, nowFunc: time.Now}
}

// SetNowFunc sets the clock. This is primarily for testing purposes.
func (t *Tracker) SetNowFunc(f func() time.Time) {
	t.nowFunc = f
}

// MarkDone closes the review cycle of prNumber. It is idempotent.
func (t *Tracker) MarkDone(ctx context.Context, prNumber int, itemID string) error {
	err := t.store.MarkLoopBroken(ctx, db.LoopBreakerEntry{
		PRNumber: prNumber,
		ItemID:   itemID,
		MarkedAt: t.nowFunc(),
	})
	if err != nil {
		return err
	}
	logging.Info("review cycle closed", "pr", prNumber, "item", itemID)
	return nil
}

// IsDone reports whether prNumber's review cycle is closed.
func (t *Tracker) IsDone(ctx context.Context, prNumber int) (bool, error) {
	if prNumber == 0 {
		return false, nil
	}
	return t.store.IsLoopBroken(ctx, prNumber)
}

// Clear reopens prNumber's review cycle. Used when the PR goes away.
func (t *Tracker) Clear(ctx context.Context, prNumber int) error {
	if prNumber == 0 {
		return nil
	}
	if err := t.store.ClearLoopBroken(ctx, prNumber); err != nil {
		return err
	}
	logging.Debug("review cycle cleared", "pr", prNumber)
	return nil
}

// Tracked returns the PR numbers whose review cycle is closed.
func (t *Tracker) Tracked(ctx context.Context) ([]int, error) {
	entries, err := t.store.LoopBrokenEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked PRs: %w", err)
	}
	prs := make([]int, 0, len(entries))
	for _, e := range entries {
		prs = append(prs, e.PRNumber)
	}
	return prs, nil
}
