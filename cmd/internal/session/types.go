package session

import (
	"net"
	"time"
)

// Role is the authorization role carried by a session.
type Role string

const (
	// RoleAdmin may list and kick sessions.
	RoleAdmin Role = "admin"
	// RoleMember is a regular authenticated user.
	RoleMember Role = "member"
)

// Session binds an opaque token to an authenticated principal.
type Session struct {
	// Token is the opaque credential presented by the client. Unique.
	Token string
	// ID is a ULID assigned at registration, used for logs and audit.
	ID string

	UserID   string
	Username string
	Role     Role

	LoginAt      time.Time
	LastActiveAt time.Time

	IP        net.IP
	UserAgent string
}

// IsAdmin reports whether the session belongs to an admin.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }
