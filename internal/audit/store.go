package audit

import (
	"context"
	"sort"
	"sync"
)

// Store persists audit events.
type Store interface {
	Insert(ctx context.Context, event Event) error
	ListByIntent(ctx context.Context, intentID string) ([]Event, error)
}

// MemoryStore keeps events in process memory, for tests and single-node
// development setups. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByIntent implements Store. Events come back oldest first.
func (s *MemoryStore) ListByIntent(_ context.Context, intentID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Event
	for _, e := range s.events {
		if e.IntentID == intentID {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RecordedAt.Before(matched[j].RecordedAt)
	})
	return matched, nil
}
