package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"stratos-hq/charon/pkg/journal"
)

// MemoryStorage implements the Storage interface using an in-memory slice.
// This implementation is intended for testing only and should not be used
// in production.
type MemoryStorage struct {
	events []*journal.Event
	mu     sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Append persists one journal event to memory.
func (s *MemoryStorage) Append(ctx context.Context, event *journal.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid mutation by the caller.
	eventCopy := *event
	s.events = append(s.events, &eventCopy)

	return nil
}

// List retrieves events matching the query, newest first.
func (s *MemoryStorage) List(ctx context.Context, query *journal.Query) ([]*journal.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filter(query)

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Time.After(matched[j].Time)
	})

	start := query.Offset
	if start > len(matched) {
		return []*journal.Event{}, nil
	}

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	results := make([]*journal.Event, 0, end-start)
	for _, event := range matched[start:end] {
		eventCopy := *event
		results = append(results, &eventCopy)
	}

	return results, nil
}

// Count returns the number of events matching the query.
func (s *MemoryStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.filter(query))), nil
}

// PruneBefore deletes events older than the cutoff.
func (s *MemoryStorage) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, event := range s.events {
		if event.Time.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, event)
	}
	s.events = kept

	return removed, nil
}

// Trim deletes the oldest events until at most max remain.
func (s *MemoryStorage) Trim(ctx context.Context, max int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int64(len(s.events)) <= max {
		return 0, nil
	}

	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Time.Before(s.events[j].Time)
	})

	removed := int64(len(s.events)) - max
	s.events = append([]*journal.Event(nil), s.events[removed:]...)

	return removed, nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
	return nil
}

// Ping reports the backend as always available.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// filter returns the events matching the query. Caller holds the lock.
func (s *MemoryStorage) filter(query *journal.Query) []*journal.Event {
	var matched []*journal.Event
	for _, event := range s.events {
		if matchesQuery(event, query) {
			matched = append(matched, event)
		}
	}
	return matched
}

// matchesQuery checks if an event matches the query filters.
func matchesQuery(event *journal.Event, query *journal.Query) bool {
	if query.Since != nil && event.Time.Before(*query.Since) {
		return false
	}
	if query.Until != nil && event.Time.After(*query.Until) {
		return false
	}
	if query.Kind != "" && event.Kind != query.Kind {
		return false
	}
	if query.SourceIP != "" && event.SourceIP != query.SourceIP {
		return false
	}
	return true
}

// Size returns the number of stored events (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.events)
}
