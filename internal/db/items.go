package db

import (
	"context"
	"fmt"
	"time"
)

// ItemRecord is the persisted runtime state of one queue item.
type ItemRecord struct {
	ItemID       string
	IssueNumber  int
	PRNumber     int
	IssueTitle   string
	State        string
	LastAction   string
	LastActionAt time.Time
}

// SaveItem upserts the item's runtime state.
func (db *DB) SaveItem(ctx context.Context, rec ItemRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO queue_items (item_id, issue_number, pr_number, issue_title, state, last_action, last_action_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			issue_number = excluded.issue_number,
			pr_number = excluded.pr_number,
			issue_title = excluded.issue_title,
			state = excluded.state,
			last_action = excluded.last_action,
			last_action_at = excluded.last_action_at,
			updated_at = excluded.updated_at
	`, rec.ItemID, rec.IssueNumber, rec.PRNumber, rec.IssueTitle, rec.State,
		rec.LastAction, formatTime(rec.LastActionAt), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", rec.ItemID, err)
	}
	return nil
}

// LoadItems returns every stored item keyed by item ID.
func (db *DB) LoadItems(ctx context.Context) (map[string]ItemRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT item_id, issue_number, pr_number, issue_title, state, last_action, last_action_at
		FROM queue_items
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	items := make(map[string]ItemRecord)
	for rows.Next() {
		var rec ItemRecord
		var lastActionAt string
		if err := rows.Scan(&rec.ItemID, &rec.IssueNumber, &rec.PRNumber, &rec.IssueTitle,
			&rec.State, &rec.LastAction, &lastActionAt); err != nil {
			return nil, err
		}
		if rec.LastActionAt, err = parseTime(lastActionAt); err != nil {
			return nil, err
		}
		items[rec.ItemID] = rec
	}
	return items, rows.Err()
}
