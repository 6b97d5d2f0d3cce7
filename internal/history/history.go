// Package history keeps a capped, append-only log of workflow events per item.
package history

import (
	"context"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
)

// MaxEntries is the number of entries kept per item.
const MaxEntries = 50

// Store persists history entries.
type Store interface {
	AppendHistory(ctx context.Context, itemID string, e db.HistoryEntry, max int) error
	History(ctx context.Context, itemID string) ([]db.HistoryEntry, error)
}

// Recorder appends workflow events.
type Recorder struct {
	store   Store
	nowFunc func() time.Time
}

// New creates a recorder backed by store.
func New(store Store) *Recorder {
	return &Recorder{store: store, nowFunc: time.Now}
}

// SetNowFunc sets the clock. This is primarily for testing purposes.
func (r *Recorder) SetNowFunc(f func() time.Time) {
	r.nowFunc = f
}

// Add records event for itemID with the item's state after the event.
func (r *Recorder) Add(ctx context.Context, itemID, event, state string, prNumber int) error {
	return r.store.AppendHistory(ctx, itemID, db.HistoryEntry{
		Timestamp: r.nowFunc(),
		Event:     event,
		State:     state,
		PRNumber:  prNumber,
	}, MaxEntries)
}

// Get returns itemID's history, oldest first.
func (r *Recorder) Get(ctx context.Context, itemID string) ([]db.HistoryEntry, error) {
	return r.store.History(ctx, itemID)
}
