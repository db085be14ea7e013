package admin

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"vigil/cmd/internal/audit"
	"vigil/cmd/internal/push"
	"vigil/cmd/internal/session"
)

type recordSink struct {
	mu     sync.Mutex
	events []push.Event
	fail   bool
}

func (s *recordSink) WriteEvent(ev push.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("dead sink")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordSink) WriteHeartbeat() error { return nil }

func newTestControl(t *testing.T) (*Control, *session.Registry, *push.Hub, *audit.MemoryStore) {
	t.Helper()
	reg := session.NewRegistry(nil, nil)
	hub := push.NewHub(nil)
	st := audit.NewMemoryStore(0)
	ctl := NewControl(nil, reg, hub, session.NewPresenceView(reg, 30*time.Minute), audit.NewRecorder(nil, st), nil)
	return ctl, reg, hub, st
}

func testSession(token, userID string, at time.Time) session.Session {
	return session.Session{
		Token:        token,
		ID:           "sess-" + token,
		UserID:       userID,
		Username:     "user-" + userID,
		Role:         session.RoleMember,
		LoginAt:      at,
		LastActiveAt: at,
		IP:           net.ParseIP("198.51.100.4"),
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

func TestKickRemovesSessionAndNotifies(t *testing.T) {
	ctl, reg, hub, _ := newTestControl(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(testSession("t1", "bob", now))
	sink := &recordSink{}
	hub.Open("bob", sink, now)

	res := ctl.Kick(context.Background(), now, "admin-1", "bob", "policy violation")
	if !res.Kicked {
		t.Fatalf("expected kicked=true when a session existed")
	}

	if _, ok := reg.Lookup("t1"); ok {
		t.Fatalf("kicked session still resolves")
	}
	if !reg.IsKicked("bob") {
		t.Fatalf("kick mark not planted")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	// events[0] is the connected ack
	if len(sink.events) != 2 || sink.events[1].Type != push.EventKicked {
		t.Fatalf("kicked event not delivered: %v", sink.events)
	}
	if sink.events[1].Data["reason"] != "policy violation" {
		t.Fatalf("reason not carried: %v", sink.events[1].Data)
	}
}

func TestKickSecondCallIsWellDefinedNoOp(t *testing.T) {
	ctl, reg, _, _ := newTestControl(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(testSession("t1", "bob", now))

	if res := ctl.Kick(context.Background(), now, "admin-1", "bob", "first"); !res.Kicked {
		t.Fatalf("first kick should report a removal")
	}
	if res := ctl.Kick(context.Background(), now, "admin-1", "bob", "second"); res.Kicked {
		t.Fatalf("second kick should report kicked=false")
	}
	if !reg.IsKicked("bob") {
		t.Fatalf("mark should still be live after the no-op kick")
	}
}

func TestKickUnknownUserPlantsMarkWithoutBroadcast(t *testing.T) {
	ctl, reg, hub, _ := newTestControl(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	sink := &recordSink{}
	hub.Open("other", sink, now)

	res := ctl.Kick(context.Background(), now, "admin-1", "ghost", "mid-registration race")
	if res.Kicked {
		t.Fatalf("kick of unknown user reported a removal")
	}
	if !reg.IsKicked("ghost") {
		t.Fatalf("kick mark missing for unknown user")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 { // just the connected ack
		t.Fatalf("no broadcast expected, got %v", sink.events)
	}
}

func TestKickIsAudited(t *testing.T) {
	ctl, reg, _, st := newTestControl(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(testSession("t1", "bob", now))
	ctl.Kick(context.Background(), now, "admin-1", "bob", "cleanup")

	recent, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Action != audit.ActionKick {
		t.Fatalf("kick not audited: %+v", recent)
	}
	if recent[0].Meta["admin_id"] != "admin-1" {
		t.Fatalf("audit meta missing admin: %v", recent[0].Meta)
	}
}

func TestListSessionsHonorsConfiguredStaleness(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg := session.NewRegistry(nil, nil, session.WithStaleAfter(2*time.Hour))
	hub := push.NewHub(nil)
	ctl := NewControl(nil, reg, hub, session.NewPresenceView(reg, 30*time.Minute),
		audit.NewRecorder(nil, audit.NewMemoryStore(0)), nil)

	// Active 90m ago: past the default 1h bound, inside the configured 2h one.
	reg.Register(testSession("t1", "bob", now.Add(-90*time.Minute)))

	out := ctl.ListSessions(now)
	if len(out) != 1 {
		t.Fatalf("session inside the configured staleness bound not listed")
	}
	if out[0].Online {
		t.Fatalf("90m-idle session must not be flagged online")
	}
}

func TestListSessionsPresenceAndConnections(t *testing.T) {
	ctl, reg, hub, _ := newTestControl(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(testSession("t1", "bob", now.Add(-5*time.Minute)))
	reg.Register(testSession("t2", "eve", now.Add(-45*time.Minute)))
	hub.Open("bob", &recordSink{}, now)
	hub.Open("bob", &recordSink{}, now)

	out := ctl.ListSessions(now)
	if len(out) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(out))
	}

	// Sorted by activity: bob first.
	bob, eve := out[0], out[1]
	if bob.UserID != "bob" || eve.UserID != "eve" {
		t.Fatalf("unexpected ordering: %s, %s", out[0].UserID, out[1].UserID)
	}
	if !bob.Online {
		t.Fatalf("bob active 5m ago should be online")
	}
	if eve.Online {
		t.Fatalf("eve active 45m ago is outside the 30m presence window")
	}
	if bob.Connections != 2 {
		t.Fatalf("expected 2 push connections for bob, got %d", bob.Connections)
	}
	if bob.Device == "" {
		t.Fatalf("device summary missing")
	}
	if bob.IP != "198.51.100.4" {
		t.Fatalf("ip missing: %q", bob.IP)
	}
}
