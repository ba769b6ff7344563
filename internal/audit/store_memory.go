package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps audit entries in memory for tests and dev runs. Entries
// are returned in append order.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if filter.DoorID != nil && e.DoorID != *filter.DoorID {
			continue
		}
		if filter.Actor != nil && e.Actor != *filter.Actor {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
