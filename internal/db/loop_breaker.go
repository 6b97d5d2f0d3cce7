package db

import (
	"context"
	"fmt"
	"time"
)

// LoopBreakerEntry records that a PR's review cycle is closed.
type LoopBreakerEntry struct {
	PRNumber int
	ItemID   string
	MarkedAt time.Time
}

// MarkLoopBroken inserts an entry for the PR. Marking an already marked PR
// keeps the original entry.
func (db *DB) MarkLoopBroken(ctx context.Context, e LoopBreakerEntry) error {
	_, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO loop_breaker (pr_number, item_id, marked_at) VALUES (?, ?, ?)",
		e.PRNumber, e.ItemID, formatTime(e.MarkedAt))
	if err != nil {
		return fmt.Errorf("failed to mark PR #%d: %w", e.PRNumber, err)
	}
	return nil
}

// IsLoopBroken reports whether an entry exists for the PR.
func (db *DB) IsLoopBroken(ctx context.Context, prNumber int) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM loop_breaker WHERE pr_number = ?", prNumber).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to read loop breaker for PR #%d: %w", prNumber, err)
	}
	return n > 0, nil
}

// ClearLoopBroken removes the entry for the PR, if any.
func (db *DB) ClearLoopBroken(ctx context.Context, prNumber int) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM loop_breaker WHERE pr_number = ?", prNumber); err != nil {
		return fmt.Errorf("failed to clear loop breaker for PR #%d: %w", prNumber, err)
	}
	return nil
}

// LoopBrokenEntries lists all entries ordered by PR number.
func (db *DB) LoopBrokenEntries(ctx context.Context) ([]LoopBreakerEntry, error) {
	rows, err := db.QueryContext(ctx, "SELECT pr_number, item_id, marked_at FROM loop_breaker ORDER BY pr_number")
	if err != nil {
		return nil, fmt.Errorf("failed to list loop breaker entries: %w", err)
	}
	defer rows.Close()

	var entries []LoopBreakerEntry
	for rows.Next() {
		var e LoopBreakerEntry
		var markedAt string
		if err := rows.Scan(&e.PRNumber, &e.ItemID, &markedAt); err != nil {
			return nil, err
		}
		if e.MarkedAt, err = parseTime(markedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
