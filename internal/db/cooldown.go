package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CooldownRecord remembers the most recent merge or completion.
// There is at most one; absence means no cooldown is in effect.
type CooldownRecord struct {
	ItemID      string
	CompletedAt time.Time
}

// GetCooldown returns the current cooldown record, or nil if none exists.
func (db *DB) GetCooldown(ctx context.Context) (*CooldownRecord, error) {
	var rec CooldownRecord
	var completedAt string
	err := db.QueryRowContext(ctx, "SELECT item_id, completed_at FROM cooldown WHERE id = 1").
		Scan(&rec.ItemID, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cooldown: %w", err)
	}
	if rec.CompletedAt, err = parseTime(completedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetCooldown replaces the cooldown record.
func (db *DB) SetCooldown(ctx context.Context, rec CooldownRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cooldown (id, item_id, completed_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET item_id = excluded.item_id, completed_at = excluded.completed_at
	`, rec.ItemID, formatTime(rec.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to write cooldown: %w", err)
	}
	return nil
}
