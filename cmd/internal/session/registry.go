package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vigil/cmd/internal/metrics"
	"vigil/cmd/security/token"
)

const (
	// DefaultStaleAfter is how long a session may sit without activity
	// before the sweep removes it.
	DefaultStaleAfter = time.Hour

	// DefaultKickMarkTTL is how long a kick mark blocks a just-kicked user.
	DefaultKickMarkTTL = 60 * time.Second
)

// Registry is the process-wide authority on live sessions.
//
// Concurrency guarantees:
// - Register's evict-then-insert runs under one critical section covering
//   both maps, so there is never a window with two valid sessions for a user.
// - All operations are fast in-memory map work; nothing blocks under the lock.
type Registry struct {
	log   *slog.Logger
	kicks KickCache

	staleAfter  time.Duration
	kickMarkTTL time.Duration

	mu      sync.Mutex
	byToken map[string]*Session
	byUser  map[string]string // userID -> token, kept in lockstep with byToken
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStaleAfter overrides the staleness bound used by Sweep.
func WithStaleAfter(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// WithKickMarkTTL overrides the kick-mark TTL.
func WithKickMarkTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.kickMarkTTL = d
		}
	}
}

// NewRegistry constructs a Registry. A nil kicks cache falls back to the
// in-memory implementation.
func NewRegistry(log *slog.Logger, kicks KickCache, opts ...RegistryOption) *Registry {
	if log == nil {
		log = slog.Default()
	}
	if kicks == nil {
		kicks = NewMemoryKickCache()
	}

	r := &Registry{
		log:         log,
		kicks:       kicks,
		staleAfter:  DefaultStaleAfter,
		kickMarkTTL: DefaultKickMarkTTL,
		byToken:     make(map[string]*Session),
		byUser:      make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// StaleAfter returns the configured staleness bound the sweep enforces.
func (r *Registry) StaleAfter() time.Duration { return r.staleAfter }

// Register stores a new session, atomically evicting any existing session
// for the same user. It returns the evicted token (if any) so the caller
// can notify that connection. Register never fails.
func (r *Registry) Register(s Session) (evicted string, hadPrior bool) {
	r.mu.Lock()

	if old, ok := r.byUser[s.UserID]; ok {
		// Delete from the primary map first; the ordering matters so no
		// reader ever observes two valid sessions for one user.
		delete(r.byToken, old)
		evicted, hadPrior = old, true
	}

	cp := s
	r.byToken[s.Token] = &cp
	r.byUser[s.UserID] = s.Token
	n := len(r.byToken)

	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	if hadPrior {
		r.log.Info("session.register.evicted_prior",
			"user_id", s.UserID, "evicted_token", token.LogRef(evicted))
	}
	return evicted, hadPrior
}

// Touch refreshes LastActiveAt for a token. Unknown tokens are a silent
// no-op: the caller treats that as "not authenticated", not as a fault.
func (r *Registry) Touch(now time.Time, tok string) {
	r.mu.Lock()
	if s, ok := r.byToken[tok]; ok {
		s.LastActiveAt = now
	}
	r.mu.Unlock()
}

// Lookup returns a copy of the session for tok, if present.
func (r *Registry) Lookup(tok string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byToken[tok]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Remove deletes a session by token (explicit logout). It plants no kick
// mark; the user may log straight back in.
func (r *Registry) Remove(tok string) bool {
	r.mu.Lock()
	s, ok := r.byToken[tok]
	if ok {
		delete(r.byToken, tok)
		delete(r.byUser, s.UserID)
	}
	n := len(r.byToken)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return ok
}

// Revoke removes the session for a user (if present) and always plants a
// kick mark, covering the race where a kick lands mid-registration.
// It reports whether a session was actually removed.
func (r *Registry) Revoke(now time.Time, userID string) bool {
	r.mu.Lock()
	tok, ok := r.byUser[userID]
	if ok {
		delete(r.byToken, tok)
		delete(r.byUser, userID)
	}
	n := len(r.byToken)
	r.mu.Unlock()

	if err := r.kicks.Set(context.Background(), userID, r.kickMarkTTL); err != nil {
		r.log.Error("session.kickmark.set.fail", "err", err, "user_id", userID)
	}

	metrics.ActiveSessions.Set(float64(n))
	return ok
}

// IsKicked reports whether a kick mark is live for userID.
func (r *Registry) IsKicked(userID string) bool {
	hit, err := r.kicks.Exists(context.Background(), userID)
	if err != nil {
		r.log.Error("session.kickmark.check.fail", "err", err, "user_id", userID)
		return false
	}
	return hit
}

// ListActive returns copies of sessions with LastActiveAt >= now-window.
func (r *Registry) ListActive(now time.Time, window time.Duration) []Session {
	cut := now.Add(-window)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Session, 0, len(r.byToken))
	for _, s := range r.byToken {
		if !s.LastActiveAt.Before(cut) {
			out = append(out, *s)
		}
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

// Sweep removes sessions stale beyond the staleness bound and purges
// expired kick marks. It is safe to call from a background scheduler; it
// takes the same lock as the foreground operations and never blocks under it.
func (r *Registry) Sweep(now time.Time) (removed int) {
	cut := now.Add(-r.staleAfter)

	r.mu.Lock()
	for tok, s := range r.byToken {
		if s.LastActiveAt.Before(cut) {
			delete(r.byToken, tok)
			delete(r.byUser, s.UserID)
			removed++
		}
	}
	n := len(r.byToken)
	r.mu.Unlock()

	if err := r.kicks.Purge(context.Background()); err != nil {
		r.log.Error("session.kickmark.purge.fail", "err", err)
	}

	metrics.ActiveSessions.Set(float64(n))
	if removed > 0 {
		metrics.SweptSessions.Add(float64(removed))
		r.log.Info("session.sweep", "removed", removed, "remaining", n)
	}
	return removed
}
