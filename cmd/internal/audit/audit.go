// Package audit records security-relevant events: logins, lockouts,
// logouts, and kicks. Recording is best-effort; no caller ever blocks or
// fails because the audit backend is down.
package audit

import (
	"context"
	"net"
	"time"
)

// Actions recorded by the session subsystem.
const (
	ActionLoginSuccess = "auth.login.success"
	ActionLoginFailed  = "auth.login.failed"
	ActionLoginLocked  = "auth.login.locked"
	ActionLogout       = "auth.logout"
	ActionKick         = "admin.kick"
)

// Event is one audit row. The JSON shape is what the admin surface serves.
type Event struct {
	At        time.Time      `json:"at"`
	Action    string         `json:"action"`
	UserID    string         `json:"user_id,omitempty"`
	Username  string         `json:"username,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	IP        net.IP         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Store persists audit events.
type Store interface {
	Insert(ctx context.Context, ev Event) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	Close() error
}
