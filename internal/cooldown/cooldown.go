// Package cooldown gates assignment of the next queue item until a fixed
// period has passed since the last merge or completion.
package cooldown

//go:generate moq -stub -out ../testutil/cooldown_store_mock.go -pkg testutil . Store:CooldownStoreMock

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
)

// DefaultDuration is the cooldown applied when none is configured.
const DefaultDuration = 60 * time.Minute

// Store persists the single cooldown record.
type Store interface {
	GetCooldown(ctx context.Context) (*db.CooldownRecord, error)
	SetCooldown(ctx context.Context, rec db.CooldownRecord) error
}

// Controller is the admission controller.
type Controller struct {
	store    Store
	duration time.Duration
	nowFunc  func() time.Time // For testing; defaults to time.Now
}

// New creates a controller. A negative duration disables the cooldown.
func New(store Store, duration time.Duration) *Controller {
	if duration < 0 {
		duration = 0
	}
	return &Controller{
		store:    store,
		duration: duration,
		nowFunc:  time.Now,
	}
}

// SetNowFunc sets the clock. This is primarily for testing purposes.
func (c *Controller) SetNowFunc(f func() time.Time) {
	c.nowFunc = f
}

// Duration returns the configured cooldown period.
func (c *Controller) Duration() time.Duration {
	return c.duration
}

// SetDuration changes the cooldown period, e.g. after a config reload.
// The recorded completion is kept.
func (c *Controller) SetDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.duration = d
}

// Status describes the admission state for the status snapshot.
type Status struct {
	CanAssign        bool
	Remaining        time.Duration
	MinutesRemaining int
	LastCompletion   *db.CooldownRecord
}

// Status reports whether a new assignment is allowed now.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	rec, err := c.store.GetCooldown(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read cooldown: %w", err)
	}
	if rec == nil {
		return Status{CanAssign: true}, nil
	}

	remaining := rec.CompletedAt.Add(c.duration).Sub(c.nowFunc())
	if remaining <= 0 {
		return Status{CanAssign: true, LastCompletion: rec}, nil
	}
	return Status{
		Remaining:        remaining,
		MinutesRemaining: int(math.Ceil(remaining.Minutes())),
		LastCompletion:   rec,
	}, nil
}

// CanAssign reports whether the cooldown has elapsed. A store failure denies
// admission for this cycle.
func (c *Controller) CanAssign(ctx context.Context) bool {
	st, err := c.Status(ctx)
	if err != nil {
		logging.Warn("cooldown check failed, denying assignment", "error", err)
		return false
	}
	return st.CanAssign
}

// RecordCompletion starts a new cooldown for itemID. The recorded completion
// time never moves backwards, even if the clock does.
func (c *Controller) RecordCompletion(ctx context.Context, itemID string) error {
	now := c.nowFunc()
	prev, err := c.store.GetCooldown(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cooldown: %w", err)
	}
	if prev != nil && prev.CompletedAt.After(now) {
		logging.Warn("clock moved backwards, keeping previous completion time",
			"item", itemID, "previous", prev.CompletedAt, "now", now)
		now = prev.CompletedAt
	}

	if err := c.store.SetCooldown(ctx, db.CooldownRecord{ItemID: itemID, CompletedAt: now}); err != nil {
		return fmt.Errorf("failed to record completion of %s: %w", itemID, err)
	}
	logging.Info("cooldown started", "item", itemID, "duration", c.duration)
	return nil
}
