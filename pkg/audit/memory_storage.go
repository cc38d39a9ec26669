package audit

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage keeps events in process memory. Useful for development and tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Store(_ context.Context, events ...Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *MemoryStorage) Query(_ context.Context, criteria Criteria) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if criteria.matches(s.events[i]) {
			matched = append(matched, s.events[i])
		}
	}
	// Events are appended in arrival order; CreatedAt decides.
	slices.SortStableFunc(matched, func(a, b Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if criteria.Offset > 0 {
		if criteria.Offset >= len(matched) {
			return []Event{}, nil
		}
		matched = matched[criteria.Offset:]
	}
	if criteria.Limit > 0 && len(matched) > criteria.Limit {
		matched = matched[:criteria.Limit]
	}
	return matched, nil
}

func (s *MemoryStorage) Count(_ context.Context, criteria Criteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.events {
		if criteria.matches(e) {
			n++
		}
	}
	return n, nil
}
