package guard

import (
	"testing"
	"time"
)

func TestLockoutThreshold(t *testing.T) {
	g := New(nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 4; i++ {
		v := g.RecordFailure(now, "alice")
		if v.Locked {
			t.Fatalf("locked after %d failures", i)
		}
		if v.Remaining != DefaultThreshold-i {
			t.Fatalf("failure %d: expected %d remaining, got %d", i, DefaultThreshold-i, v.Remaining)
		}
	}

	v := g.RecordFailure(now, "alice")
	if !v.Locked {
		t.Fatalf("5th failure did not lock")
	}
	want := now.Add(DefaultLockFor)
	if !v.LockedUntil.Equal(want) {
		t.Fatalf("expected lock until %v, got %v", want, v.LockedUntil)
	}
}

func TestFailureWhileLockedDoesNotExtendLock(t *testing.T) {
	g := New(nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < DefaultThreshold; i++ {
		g.RecordFailure(now, "alice")
	}
	first := g.CheckLock(now, "alice")

	v := g.RecordFailure(now.Add(time.Minute), "alice")
	if !v.Locked {
		t.Fatalf("expected still locked")
	}
	if !v.LockedUntil.Equal(first.LockedUntil) {
		t.Fatalf("lock deadline moved from %v to %v", first.LockedUntil, v.LockedUntil)
	}
}

func TestWindowResetStartsFreshCount(t *testing.T) {
	g := New(nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	g.RecordFailure(now, "alice")
	g.RecordFailure(now.Add(time.Minute), "alice")

	// More than the rolling window after the window started: count resets to 1.
	v := g.RecordFailure(now.Add(DefaultWindow+time.Minute), "alice")
	if v.Locked {
		t.Fatalf("unexpected lock after window reset")
	}
	if v.Remaining != DefaultThreshold-1 {
		t.Fatalf("expected a fresh window at count 1, got remaining=%d", v.Remaining)
	}
}

func TestCheckLockLazilyClearsExpiredLock(t *testing.T) {
	g := New(nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < DefaultThreshold; i++ {
		g.RecordFailure(now, "alice")
	}

	afterLock := now.Add(DefaultLockFor + time.Second)
	v := g.CheckLock(afterLock, "alice")
	if v.Locked {
		t.Fatalf("expired lock still reported")
	}
	if v.Remaining != DefaultThreshold {
		t.Fatalf("expired lock did not return username to Clean: remaining=%d", v.Remaining)
	}

	// The counter was cleared entirely, so the next failure is count 1.
	nv := g.RecordFailure(afterLock, "alice")
	if nv.Locked || nv.Remaining != DefaultThreshold-1 {
		t.Fatalf("post-expiry failure should start a fresh window: %+v", nv)
	}
}

func TestClearOnSuccess(t *testing.T) {
	g := New(nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	g.RecordFailure(now, "alice")
	g.RecordFailure(now, "alice")
	g.Clear("Alice ") // normalization applies to Clear too

	v := g.CheckLock(now, "alice")
	if v.Remaining != DefaultThreshold {
		t.Fatalf("clear did not remove the counter: remaining=%d", v.Remaining)
	}
}

func TestLockedAttemptWhileLockedIsNotCounted(t *testing.T) {
	g := New(nil, WithPolicy(2, DefaultWindow, DefaultLockFor))
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	g.RecordFailure(now, "bob")
	g.RecordFailure(now, "bob") // locks

	// Attempts during the lock do not matter; after expiry bob is Clean.
	g.RecordFailure(now.Add(time.Minute), "bob")
	g.RecordFailure(now.Add(2*time.Minute), "bob")

	after := now.Add(DefaultLockFor + time.Second)
	if v := g.CheckLock(after, "bob"); v.Locked {
		t.Fatalf("lock should have expired")
	}
}

func TestSweepDropsIdleCounters(t *testing.T) {
	g := New(nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	g.RecordFailure(now.Add(-25*time.Hour), "stale")
	g.RecordFailure(now.Add(-time.Minute), "recent")

	if removed := g.Sweep(now); removed != 1 {
		t.Fatalf("expected 1 swept counter, got %d", removed)
	}

	g.mu.Lock()
	_, staleOK := g.counters["stale"]
	_, recentOK := g.counters["recent"]
	g.mu.Unlock()

	if staleOK {
		t.Fatalf("idle counter survived the sweep")
	}
	if !recentOK {
		t.Fatalf("recent counter was swept")
	}
}
