package session

import (
	"log/slog"
	"net"
	"testing"
	"time"
)

func testLogger() *slog.Logger { return slog.Default() }

func newTestRegistry(t *testing.T) (*Registry, *MemoryKickCache) {
	t.Helper()
	kicks := NewMemoryKickCache()
	return NewRegistry(testLogger(), kicks), kicks
}

func mkSession(token, userID string, at time.Time) Session {
	return Session{
		Token:        token,
		ID:           "01ARZ3NDEKTSV4RRFFQ69G5F" + token[:2],
		UserID:       userID,
		Username:     "user-" + userID,
		Role:         RoleMember,
		LoginAt:      at,
		LastActiveAt: at,
		IP:           net.ParseIP("203.0.113.7"),
	}
}

func TestRegisterEnforcesSingleSessionPerUser(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if evicted, had := reg.Register(mkSession("tokA", "u1", now)); had {
		t.Fatalf("first register reported an eviction: %q", evicted)
	}

	evicted, had := reg.Register(mkSession("tokB", "u1", now))
	if !had || evicted != "tokA" {
		t.Fatalf("expected tokA evicted, got had=%v evicted=%q", had, evicted)
	}

	if _, ok := reg.Lookup("tokA"); ok {
		t.Fatalf("evicted token still resolves")
	}
	if s, ok := reg.Lookup("tokB"); !ok || s.UserID != "u1" {
		t.Fatalf("new token does not resolve: ok=%v", ok)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", reg.Len())
	}
}

func TestTouchUnknownTokenIsNoOp(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Touch(now, "never-registered")

	if reg.Len() != 0 {
		t.Fatalf("touch created a session")
	}
}

func TestTouchRefreshesActivity(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(mkSession("tokA", "u1", now))
	later := now.Add(10 * time.Minute)
	reg.Touch(later, "tokA")

	s, ok := reg.Lookup("tokA")
	if !ok {
		t.Fatalf("session vanished")
	}
	if !s.LastActiveAt.Equal(later) {
		t.Fatalf("expected last_active %v, got %v", later, s.LastActiveAt)
	}
}

func TestRevokeRemovesSessionAndPlantsKickMark(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(mkSession("tokA", "u1", now))

	if !reg.Revoke(now, "u1") {
		t.Fatalf("revoke reported no session removed")
	}
	if _, ok := reg.Lookup("tokA"); ok {
		t.Fatalf("revoked token still resolves")
	}
	if !reg.IsKicked("u1") {
		t.Fatalf("kick mark not planted")
	}

	// Second revoke: nothing left to remove, but the mark stays planted.
	if reg.Revoke(now, "u1") {
		t.Fatalf("second revoke claimed to remove a session")
	}
	if !reg.IsKicked("u1") {
		t.Fatalf("kick mark lost after second revoke")
	}
}

func TestRevokeUnknownUserStillMarks(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if reg.Revoke(now, "ghost") {
		t.Fatalf("revoke of unknown user reported a removal")
	}
	if !reg.IsKicked("ghost") {
		t.Fatalf("kick mark should cover a registration racing the kick")
	}
}

func TestKickMarkExpires(t *testing.T) {
	kicks := NewMemoryKickCache()
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	kicks.now = func() time.Time { return clock }

	reg := NewRegistry(testLogger(), kicks)
	reg.Register(mkSession("tokA", "u1", clock))
	reg.Revoke(clock, "u1")

	if !reg.IsKicked("u1") {
		t.Fatalf("mark should be live immediately after revoke")
	}

	clock = clock.Add(61 * time.Second)
	if reg.IsKicked("u1") {
		t.Fatalf("mark should expire after its TTL")
	}
}

func TestRemoveIsLogoutNotKick(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(mkSession("tokA", "u1", now))

	if !reg.Remove("tokA") {
		t.Fatalf("remove reported no session")
	}
	if reg.IsKicked("u1") {
		t.Fatalf("logout must not plant a kick mark")
	}
	if reg.Remove("tokA") {
		t.Fatalf("second remove reported a session")
	}
}

func TestListActiveWindow(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	fresh := mkSession("tokA", "u1", now)
	reg.Register(fresh)

	stale := mkSession("tokB", "u2", now.Add(-31*time.Minute))
	reg.Register(stale)

	within30 := reg.ListActive(now, 30*time.Minute)
	if len(within30) != 1 || within30[0].UserID != "u1" {
		t.Fatalf("expected only u1 within 30m, got %d sessions", len(within30))
	}

	within60 := reg.ListActive(now, 60*time.Minute)
	if len(within60) != 2 {
		t.Fatalf("expected both sessions within 60m, got %d", len(within60))
	}
}

func TestSweepDropsStaleSessions(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(mkSession("tokA", "u1", now.Add(-2*time.Hour)))
	reg.Register(mkSession("tokB", "u2", now.Add(-5*time.Minute)))

	if removed := reg.Sweep(now); removed != 1 {
		t.Fatalf("expected 1 swept session, got %d", removed)
	}
	if _, ok := reg.Lookup("tokA"); ok {
		t.Fatalf("stale session survived the sweep")
	}
	if _, ok := reg.Lookup("tokB"); !ok {
		t.Fatalf("fresh session was swept")
	}
}

func TestSweepKeepsMapsInLockstep(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(mkSession("tokA", "u1", now.Add(-2*time.Hour)))
	reg.Sweep(now)

	// After the sweep dropped u1's session, a new register for u1 must not
	// report a phantom eviction.
	if evicted, had := reg.Register(mkSession("tokC", "u1", now)); had {
		t.Fatalf("register after sweep reported phantom eviction %q", evicted)
	}
}
