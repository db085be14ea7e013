package session

import (
	"testing"
	"time"
)

func TestPresenceViewWindow(t *testing.T) {
	reg, _ := newTestRegistry(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	reg.Register(mkSession("tokA", "u1", now.Add(-5*time.Minute)))
	reg.Register(mkSession("tokB", "u2", now.Add(-31*time.Minute)))

	p := NewPresenceView(reg, 30*time.Minute)

	online := p.Online(now)
	if len(online) != 1 || online[0].UserID != "u1" {
		t.Fatalf("expected only u1 online, got %d", len(online))
	}

	if !p.IsOnline(now, "u1") {
		t.Fatalf("u1 should be online")
	}
	if p.IsOnline(now, "u2") {
		t.Fatalf("u2 fell outside the presence window")
	}
	if p.IsOnline(now, "nobody") {
		t.Fatalf("unknown user reported online")
	}
}
