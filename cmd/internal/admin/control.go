// Package admin exposes the administrative operations over the session
// subsystem: listing active sessions with presence metadata and force-kicking
// a user.
package admin

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"vigil/cmd/internal/audit"
	"vigil/cmd/internal/metrics"
	"vigil/cmd/internal/push"
	"vigil/cmd/internal/session"
)

// SessionSummary is the admin-facing view of one live session.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	LoginAt      time.Time `json:"login_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	IP           string    `json:"ip,omitempty"`
	Device       string    `json:"device,omitempty"`
	Location     string    `json:"location,omitempty"`
	Online       bool      `json:"online"`
	Connections  int       `json:"connections"`
}

// KickResult reports the outcome of a kick.
type KickResult struct {
	// Kicked is true when a live session was actually removed. A kick on a
	// user with no session is a well-defined no-op outcome, not an error.
	Kicked bool `json:"kicked"`
}

// Control composes the registry and hub into the admin operations.
type Control struct {
	log      *slog.Logger
	reg      *session.Registry
	hub      *push.Hub
	presence *session.PresenceView
	audit    *audit.Recorder
	geo      *GeoResolver // nil when GeoIP is not configured
}

// NewControl wires the admin operations. geo may be nil.
func NewControl(log *slog.Logger, reg *session.Registry, hub *push.Hub, presence *session.PresenceView, rec *audit.Recorder, geo *GeoResolver) *Control {
	if log == nil {
		log = slog.Default()
	}
	return &Control{log: log, reg: reg, hub: hub, presence: presence, audit: rec, geo: geo}
}

// ListSessions returns every live session enriched with presence, device,
// and connection metadata. Read-only, no side effects.
func (c *Control) ListSessions(now time.Time) []SessionSummary {
	// The staleness bound, not the presence window: admins see every
	// session the sweep has not yet collected, flagged online or not.
	live := c.reg.ListActive(now, c.reg.StaleAfter())
	cut := now.Add(-c.presence.Window())

	out := make([]SessionSummary, 0, len(live))
	for _, s := range live {
		sum := SessionSummary{
			SessionID:    s.ID,
			UserID:       s.UserID,
			Username:     s.Username,
			Role:         string(s.Role),
			LoginAt:      s.LoginAt,
			LastActiveAt: s.LastActiveAt,
			Device:       DeviceSummary(s.UserAgent),
			Online:       !s.LastActiveAt.Before(cut),
			Connections:  c.hub.Connections(s.UserID),
		}
		if s.IP != nil {
			sum.IP = s.IP.String()
			sum.Location = c.geo.Lookup(s.IP)
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActiveAt.After(out[j].LastActiveAt)
	})
	return out
}

// RecentAudit returns the latest audit events, newest first.
func (c *Control) RecentAudit(ctx context.Context, limit int) ([]audit.Event, error) {
	return c.audit.Recent(ctx, limit)
}

// Kick revokes the user's session and notifies their live connections.
// When no session existed the kick mark is still planted (covering a login
// racing the kick) and no broadcast is sent.
func (c *Control) Kick(ctx context.Context, now time.Time, adminID, userID, reason string) KickResult {
	removed := c.reg.Revoke(now, userID)

	if removed {
		c.hub.Broadcast(userID, push.Event{
			Type: push.EventKicked,
			Data: map[string]any{"reason": reason},
		})
		metrics.Kicks.Inc()
	}

	c.audit.Kick(ctx, adminID, userID, reason, removed)
	c.log.Info("admin.kick", "admin_id", adminID, "user_id", userID, "session_removed", removed)

	return KickResult{Kicked: removed}
}
