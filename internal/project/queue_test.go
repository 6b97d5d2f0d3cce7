package project

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueAdd(t *testing.T) {
	var q QueueConfig
	require.NoError(t, q.Add("FEAT-1", 7, "FEAT-1: widgets"))
	require.NoError(t, q.Add("FEAT-2", 0, ""))

	require.Equal(t, []string{"FEAT-1", "FEAT-2"}, q.Items)
	require.Equal(t, 7, q.IssueNumber("FEAT-1"))
	require.Equal(t, 0, q.IssueNumber("FEAT-2"))
	require.Equal(t, "FEAT-1: widgets", q.Title("FEAT-1"))

	err := q.Add("FEAT-1", 0, "")
	require.ErrorIs(t, err, ErrDuplicateItem)
	require.Error(t, q.Add("  ", 0, ""))
}

func TestQueueRemove(t *testing.T) {
	var q QueueConfig
	require.NoError(t, q.Add("A", 1, "A title"))
	require.NoError(t, q.Add("B", 2, ""))

	require.NoError(t, q.Remove("A"))
	require.Equal(t, []string{"B"}, q.Items)
	require.Equal(t, 0, q.IssueNumber("A"))
	require.Empty(t, q.Title("A"))

	require.ErrorIs(t, q.Remove("A"), ErrUnknownItem)
}

func TestQueueMove(t *testing.T) {
	tests := []struct {
		name string
		move func(q *QueueConfig) error
		want []string
	}{
		{name: "up", move: func(q *QueueConfig) error { return q.MoveUp("B") }, want: []string{"B", "A", "C"}},
		{name: "up first is no-op", move: func(q *QueueConfig) error { return q.MoveUp("A") }, want: []string{"A", "B", "C"}},
		{name: "down", move: func(q *QueueConfig) error { return q.MoveDown("B") }, want: []string{"A", "C", "B"}},
		{name: "down last is no-op", move: func(q *QueueConfig) error { return q.MoveDown("C") }, want: []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QueueConfig{Items: []string{"A", "B", "C"}}
			require.NoError(t, tt.move(&q))
			require.Equal(t, tt.want, q.Items)
		})
	}

	q := QueueConfig{Items: []string{"A"}}
	require.ErrorIs(t, q.MoveUp("Z"), ErrUnknownItem)
	require.ErrorIs(t, q.MoveDown("Z"), ErrUnknownItem)
}

func TestQueueIssueNumber(t *testing.T) {
	q := QueueConfig{IssueNumbers: map[string]int{"#5": 6, "X": 3}}
	require.Equal(t, 3, q.IssueNumber("X"))
	require.Equal(t, 6, q.IssueNumber("#5"))
	require.Equal(t, 12, q.IssueNumber("#12"))
	require.Equal(t, 0, q.IssueNumber("#abc"))
	require.Equal(t, 0, q.IssueNumber("12"))
}
