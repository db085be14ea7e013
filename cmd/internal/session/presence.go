package session

import "time"

// PresenceView is a read-only projection over the registry answering
// "who is online" within a trailing window.
type PresenceView struct {
	reg    *Registry
	window time.Duration
}

// NewPresenceView constructs a view with the given trailing window.
func NewPresenceView(reg *Registry, window time.Duration) *PresenceView {
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &PresenceView{reg: reg, window: window}
}

// Window returns the configured trailing window.
func (p *PresenceView) Window() time.Duration { return p.window }

// Online returns sessions active within the window.
func (p *PresenceView) Online(now time.Time) []Session {
	return p.reg.ListActive(now, p.window)
}

// IsOnline reports whether userID has a session active within the window.
func (p *PresenceView) IsOnline(now time.Time, userID string) bool {
	for _, s := range p.reg.ListActive(now, p.window) {
		if s.UserID == userID {
			return true
		}
	}
	return false
}
