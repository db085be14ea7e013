package session

import (
	"context"
	"sync"
	"time"
)

// KickCache tracks short-lived kick marks by user ID.
// Implementations must be safe for concurrent use.
type KickCache interface {
	// Set marks a user as kicked for ttl.
	Set(ctx context.Context, userID string, ttl time.Duration) error

	// Exists reports whether a live (unexpired) mark exists for the user.
	Exists(ctx context.Context, userID string) (bool, error)

	// Purge drops expired marks. A no-op for backends with native TTLs.
	Purge(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// MemoryKickCache is the default in-process KickCache.
//
// Expiry is lazy on Exists and batched in Purge, so reads and the sweep
// share one expiry rule.
type MemoryKickCache struct {
	mu      sync.Mutex
	entries map[string]time.Time // userID -> expiresAt

	now func() time.Time // test seam
}

// NewMemoryKickCache constructs an empty in-memory cache.
func NewMemoryKickCache() *MemoryKickCache {
	return &MemoryKickCache{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Set marks userID as kicked for ttl.
func (c *MemoryKickCache) Set(_ context.Context, userID string, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[userID] = c.now().Add(ttl)
	c.mu.Unlock()
	return nil
}

// Exists reports whether a live mark exists, lazily dropping expired ones.
func (c *MemoryKickCache) Exists(_ context.Context, userID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.entries[userID]
	if !ok {
		return false, nil
	}
	if !exp.After(c.now()) {
		delete(c.entries, userID)
		return false, nil
	}
	return true, nil
}

// Purge drops all expired marks.
func (c *MemoryKickCache) Purge(_ context.Context) error {
	now := c.now()

	c.mu.Lock()
	for id, exp := range c.entries {
		if !exp.After(now) {
			delete(c.entries, id)
		}
	}
	c.mu.Unlock()
	return nil
}

// Close is a no-op for the memory cache.
func (c *MemoryKickCache) Close() error { return nil }
