package identity

import (
	"context"
	"sync"
)

// MemoryStore is the in-process Store used when no database is configured,
// seeded from bootstrap config at startup.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User // keyed by normalized username
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

// Seed inserts or replaces a user.
func (s *MemoryStore) Seed(u User) {
	s.mu.Lock()
	s.users[Normalize(u.Username)] = u
	s.mu.Unlock()
}

// FindByUsername loads a user by normalized username.
func (s *MemoryStore) FindByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[Normalize(username)]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close(_ context.Context) error { return nil }
