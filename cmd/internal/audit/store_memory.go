package audit

import (
	"context"
	"sync"
)

const defaultMemoryCap = 1024

// MemoryStore keeps the most recent events in a bounded ring. It is the
// fallback when no database is configured.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewMemoryStore constructs a ring of the given capacity (default 1024).
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCap
	}
	return &MemoryStore{events: make([]Event, capacity)}
}

// Insert appends an event, overwriting the oldest once full.
func (s *MemoryStore) Insert(_ context.Context, ev Event) error {
	s.mu.Lock()
	s.events[s.next] = ev
	s.next = (s.next + 1) % len(s.events)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()
	return nil
}

// Recent returns up to limit events, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next
	if s.full {
		n = len(s.events)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Event, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.next - 1 - i + len(s.events)) % len(s.events)
		out = append(out, s.events[idx])
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
