// Package guard rate-limits login attempts per username.
//
// Each username moves through a small state machine:
//
//	Clean -> Counting(n) -> Locked -> Clean
//
// Failures inside a rolling window accumulate; reaching the threshold sets
// a lock. Further failures while locked do not extend the lock, so an
// attacker cannot keep an account locked forever by continuing to guess.
// Lock expiry and successful login both return the username to Clean.
package guard

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"vigil/cmd/internal/metrics"
)

const (
	// DefaultThreshold is the number of failures that triggers a lock.
	DefaultThreshold = 5
	// DefaultWindow is the rolling window failures accumulate within.
	DefaultWindow = 15 * time.Minute
	// DefaultLockFor is the lock duration once the threshold is reached.
	DefaultLockFor = 5 * time.Minute
	// DefaultIdleFor is how long an untouched counter survives before Sweep drops it.
	DefaultIdleFor = 24 * time.Hour
)

// Verdict is the outcome of a guard check or a recorded failure.
type Verdict struct {
	Locked      bool
	Remaining   int       // attempts left before a lock; 0 while locked
	LockedUntil time.Time // zero unless Locked
}

// RetryAfter returns how long the caller should wait, or 0 when not locked.
func (v Verdict) RetryAfter(now time.Time) time.Duration {
	if !v.Locked || !v.LockedUntil.After(now) {
		return 0
	}
	return v.LockedUntil.Sub(now)
}

type counter struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time // zero while not locked
	lastSeen    time.Time
}

// Guard tracks failed login attempts per username and enforces temporary
// lockout. All operations are fast in-memory map work under one mutex.
type Guard struct {
	log *slog.Logger

	threshold int
	window    time.Duration
	lockFor   time.Duration
	idleFor   time.Duration

	mu       sync.Mutex
	counters map[string]*counter
}

// Option configures a Guard.
type Option func(*Guard)

// WithPolicy overrides threshold, window, and lock duration. Non-positive
// values keep the defaults.
func WithPolicy(threshold int, window, lockFor time.Duration) Option {
	return func(g *Guard) {
		if threshold > 0 {
			g.threshold = threshold
		}
		if window > 0 {
			g.window = window
		}
		if lockFor > 0 {
			g.lockFor = lockFor
		}
	}
}

// WithIdleFor overrides how long idle counters survive.
func WithIdleFor(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.idleFor = d
		}
	}
}

// New constructs a Guard with default policy.
func New(log *slog.Logger, opts ...Option) *Guard {
	if log == nil {
		log = slog.Default()
	}
	g := &Guard{
		log:       log,
		threshold: DefaultThreshold,
		window:    DefaultWindow,
		lockFor:   DefaultLockFor,
		idleFor:   DefaultIdleFor,
		counters:  make(map[string]*counter),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// expireIfDue applies the one expiry rule shared by every call site:
// a lock past its deadline clears the counter entirely, and a counting
// window that elapsed without a lock resets the count. It reports whether
// the counter should be dropped from the map.
func (g *Guard) expireIfDue(c *counter, now time.Time) (drop bool) {
	if !c.lockedUntil.IsZero() {
		if !c.lockedUntil.After(now) {
			return true
		}
		return false
	}
	if now.Sub(c.windowStart) > g.window {
		c.failures = 0
	}
	return false
}

// RecordFailure registers a failed login attempt for username.
// While a lock is active it returns the existing lock without incrementing.
func (g *Guard) RecordFailure(now time.Time, username string) Verdict {
	key := normalize(username)

	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.counters[key]
	if ok && g.expireIfDue(c, now) {
		delete(g.counters, key)
		ok = false
	}

	if !ok {
		c = &counter{}
		g.counters[key] = c
	}

	c.lastSeen = now

	if !c.lockedUntil.IsZero() {
		return Verdict{Locked: true, LockedUntil: c.lockedUntil}
	}

	if c.failures == 0 {
		c.windowStart = now
	}
	c.failures++

	if c.failures >= g.threshold {
		c.lockedUntil = now.Add(g.lockFor)
		metrics.Lockouts.Inc()
		g.log.Info("guard.lockout", "username", key, "locked_until", c.lockedUntil)
		return Verdict{Locked: true, LockedUntil: c.lockedUntil}
	}

	return Verdict{Remaining: g.threshold - c.failures}
}

// CheckLock reports whether username is currently locked out. An expired
// lock is cleared as a side effect, so stale locks never linger.
func (g *Guard) CheckLock(now time.Time, username string) Verdict {
	key := normalize(username)

	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.counters[key]
	if !ok {
		return Verdict{Remaining: g.threshold}
	}
	if g.expireIfDue(c, now) {
		delete(g.counters, key)
		return Verdict{Remaining: g.threshold}
	}
	if !c.lockedUntil.IsZero() {
		return Verdict{Locked: true, LockedUntil: c.lockedUntil}
	}
	return Verdict{Remaining: g.threshold - c.failures}
}

// Clear removes the counter for username entirely. Called on successful login.
func (g *Guard) Clear(username string) {
	key := normalize(username)

	g.mu.Lock()
	delete(g.counters, key)
	g.mu.Unlock()
}

// Sweep drops counters that have been idle beyond the idle bound, plus any
// whose lock or window already expired.
func (g *Guard) Sweep(now time.Time) (removed int) {
	cut := now.Add(-g.idleFor)

	g.mu.Lock()
	defer g.mu.Unlock()

	for key, c := range g.counters {
		if c.lastSeen.Before(cut) || g.expireIfDue(c, now) {
			delete(g.counters, key)
			removed++
		}
	}
	return removed
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
