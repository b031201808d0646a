package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"minbar/pkg/domain"
	audit "minbar/pkg/platform/audit"
)

// InMemoryStore keeps audit entries in insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	entry.Details = maps.Clone(entry.Details)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter audit.Filter, page domain.Page) ([]audit.Entry, int, error) {
	s.mu.RLock()
	matched := make([]audit.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b audit.Entry) int {
		switch {
		case filter.Less(a, b):
			return -1
		case filter.Less(b, a):
			return 1
		}
		return 0
	})

	page = page.Normalize()
	start, end := page.Bounds(len(matched))
	out := make([]audit.Entry, 0, end-start)
	for _, e := range matched[start:end] {
		e.Details = maps.Clone(e.Details)
		out = append(out, e)
	}
	return out, len(matched), nil
}

func (s *InMemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e audit.Entry) bool {
		return e.Timestamp.Before(cutoff)
	})
	return before - len(s.entries), nil
}

func (s *InMemoryStore) DeleteByIDs(_ context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e audit.Entry) bool {
		_, ok := doomed[e.ID]
		return ok
	})
	return before - len(s.entries), nil
}

// Len returns the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
