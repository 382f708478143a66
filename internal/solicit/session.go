package solicit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SessionStore persists the conversation context identifier per peer so
// negotiation rounds reach the peer under the same context as the original
// solicitation.
type SessionStore interface {
	// ContextID returns the stored context id for the peer, creating and
	// persisting a fresh one when none exists.
	ContextID(ctx context.Context, peer string) (string, error)
}

// MemorySessionStore keeps sessions in process memory. Safe for concurrent
// use.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]string)}
}

// ContextID implements SessionStore.
func (s *MemorySessionStore) ContextID(_ context.Context, peer string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.sessions[peer]; ok {
		return id, nil
	}
	id := uuid.NewString()
	s.sessions[peer] = id
	return id, nil
}
