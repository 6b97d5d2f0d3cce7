package db

import (
	"context"
	"fmt"
	"time"
)

// HistoryEntry is one recorded event in an item's workflow history.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	State     string    `json:"state"`
	PRNumber  int       `json:"pr_number,omitempty"`
}

// AppendHistory adds an entry for the item and drops all but the newest max entries.
func (db *DB) AppendHistory(ctx context.Context, itemID string, e HistoryEntry, max int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO workflow_history (item_id, occurred_at, event, state, pr_number) VALUES (?, ?, ?, ?, ?)",
		itemID, formatTime(e.Timestamp), e.Event, e.State, e.PRNumber); err != nil {
		return fmt.Errorf("failed to append history for %s: %w", itemID, err)
	}

	if max > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM workflow_history
			WHERE item_id = ? AND id NOT IN (
				SELECT id FROM workflow_history WHERE item_id = ? ORDER BY id DESC LIMIT ?
			)
		`, itemID, itemID, max); err != nil {
			return fmt.Errorf("failed to trim history for %s: %w", itemID, err)
		}
	}

	return tx.Commit()
}

// History returns the item's entries, oldest first.
func (db *DB) History(ctx context.Context, itemID string) ([]HistoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT occurred_at, event, state, pr_number FROM workflow_history WHERE item_id = ? ORDER BY id",
		itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", itemID, err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var at string
		if err := rows.Scan(&at, &e.Event, &e.State, &e.PRNumber); err != nil {
			return nil, err
		}
		if e.Timestamp, err = parseTime(at); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
