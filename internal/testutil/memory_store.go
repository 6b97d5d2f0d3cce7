package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
)

// MemoryStore implements the persistence surface in memory.
// Set Err to make every call fail.
type MemoryStore struct {
	mu       sync.Mutex
	Err      error
	cooldown *db.CooldownRecord
	loops    map[int]db.LoopBreakerEntry
	history  map[string][]db.HistoryEntry
	items    map[string]db.ItemRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		loops:   make(map[int]db.LoopBreakerEntry),
		history: make(map[string][]db.HistoryEntry),
		items:   make(map[string]db.ItemRecord),
	}
}

func (s *MemoryStore) GetCooldown(ctx context.Context) (*db.CooldownRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.cooldown == nil {
		return nil, nil
	}
	rec := *s.cooldown
	return &rec, nil
}

func (s *MemoryStore) SetCooldown(ctx context.Context, rec db.CooldownRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.cooldown = &rec
	return nil
}

func (s *MemoryStore) MarkLoopBroken(ctx context.Context, e db.LoopBreakerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.loops[e.PRNumber]; !ok {
		s.loops[e.PRNumber] = e
	}
	return nil
}

func (s *MemoryStore) IsLoopBroken(ctx context.Context, prNumber int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.loops[prNumber]
	return ok, nil
}

func (s *MemoryStore) ClearLoopBroken(ctx context.Context, prNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.loops, prNumber)
	return nil
}

func (s *MemoryStore) LoopBrokenEntries(ctx context.Context) ([]db.LoopBreakerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	entries := make([]db.LoopBreakerEntry, 0, len(s.loops))
	for _, e := range s.loops {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].PRNumber < entries[j].PRNumber })
	return entries, nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, itemID string, e db.HistoryEntry, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	h := append(s.history[itemID], e)
	if max > 0 && len(h) > max {
		h = h[len(h)-max:]
	}
	s.history[itemID] = h
	return nil
}

func (s *MemoryStore) History(ctx context.Context, itemID string) ([]db.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]db.HistoryEntry(nil), s.history[itemID]...), nil
}

func (s *MemoryStore) SaveItem(ctx context.Context, rec db.ItemRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.items[rec.ItemID] = rec
	return nil
}

func (s *MemoryStore) LoadItems(ctx context.Context) (map[string]db.ItemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	items := make(map[string]db.ItemRecord, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	return items, nil
}
