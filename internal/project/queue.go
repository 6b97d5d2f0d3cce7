package project

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrUnknownItem is returned when a queue operation names an item that is not queued.
	ErrUnknownItem = errors.New("item not in queue")
	// ErrDuplicateItem is returned when adding an item that is already queued.
	ErrDuplicateItem = errors.New("item already in queue")
)

// Contains reports whether id is queued.
func (q *QueueConfig) Contains(id string) bool {
	return slices.Contains(q.Items, id)
}

// Add appends id to the end of the queue. A non-zero issueNumber and a
// non-empty title are remembered for the item.
func (q *QueueConfig) Add(id string, issueNumber int, title string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("item id must not be empty")
	}
	if q.Contains(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateItem, id)
	}
	q.Items = append(q.Items, id)
	if issueNumber > 0 {
		if q.IssueNumbers == nil {
			q.IssueNumbers = make(map[string]int)
		}
		q.IssueNumbers[id] = issueNumber
	}
	if title != "" {
		q.SetTitle(id, title)
	}
	return nil
}

// Remove drops id and everything remembered about it.
func (q *QueueConfig) Remove(id string) error {
	i := slices.Index(q.Items, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	q.Items = slices.Delete(q.Items, i, i+1)
	delete(q.IssueNumbers, id)
	delete(q.IssueTitles, id)
	return nil
}

// MoveUp swaps id with the item before it. Moving the first item is a no-op.
func (q *QueueConfig) MoveUp(id string) error {
	i := slices.Index(q.Items, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if i > 0 {
		q.Items[i-1], q.Items[i] = q.Items[i], q.Items[i-1]
	}
	return nil
}

// MoveDown swaps id with the item after it. Moving the last item is a no-op.
func (q *QueueConfig) MoveDown(id string) error {
	i := slices.Index(q.Items, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if i < len(q.Items)-1 {
		q.Items[i+1], q.Items[i] = q.Items[i], q.Items[i+1]
	}
	return nil
}

// IssueNumber returns the issue number configured for id. An ID of the form
// "#123" names its issue directly. It returns 0 when the number is not known
// yet and must be discovered.
func (q *QueueConfig) IssueNumber(id string) int {
	if n, ok := q.IssueNumbers[id]; ok && n > 0 {
		return n
	}
	if rest, ok := strings.CutPrefix(id, "#"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// Title returns the cached issue title for id.
func (q *QueueConfig) Title(id string) string {
	return q.IssueTitles[id]
}

// SetTitle caches the issue title for id.
func (q *QueueConfig) SetTitle(id, title string) {
	if q.IssueTitles == nil {
		q.IssueTitles = make(map[string]string)
	}
	q.IssueTitles[id] = title
}
