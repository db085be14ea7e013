package audit

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// Recorder is the write-side facade handlers use. Insert failures are
// logged and swallowed.
type Recorder struct {
	log   *slog.Logger
	store Store
}

// NewRecorder constructs a Recorder. A nil store falls back to memory.
func NewRecorder(log *slog.Logger, store Store) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		store = NewMemoryStore(0)
	}
	return &Recorder{log: log, store: store}
}

// LoginSuccess records a successful login.
func (r *Recorder) LoginSuccess(ctx context.Context, userID, username, sessionID string, ip net.IP, ua string) {
	r.insert(ctx, Event{
		Action: ActionLoginSuccess, UserID: userID, Username: username,
		SessionID: sessionID, IP: ip, UserAgent: ua,
	})
}

// LoginFailed records a failed login attempt.
func (r *Recorder) LoginFailed(ctx context.Context, username string, ip net.IP, ua, reason string) {
	r.insert(ctx, Event{
		Action: ActionLoginFailed, Username: username, IP: ip, UserAgent: ua,
		Meta: map[string]any{"reason": reason},
	})
}

// LoginLocked records a login attempt rejected by an active lockout.
func (r *Recorder) LoginLocked(ctx context.Context, username string, ip net.IP, ua string, retryAfter time.Duration) {
	r.insert(ctx, Event{
		Action: ActionLoginLocked, Username: username, IP: ip, UserAgent: ua,
		Meta: map[string]any{"retry_after_s": int64(retryAfter.Seconds())},
	})
}

// Logout records an explicit logout.
func (r *Recorder) Logout(ctx context.Context, userID, username, sessionID string, ip net.IP, ua string) {
	r.insert(ctx, Event{
		Action: ActionLogout, UserID: userID, Username: username,
		SessionID: sessionID, IP: ip, UserAgent: ua,
	})
}

// Kick records an administrative kick.
func (r *Recorder) Kick(ctx context.Context, adminID, targetUserID, reason string, removed bool) {
	r.insert(ctx, Event{
		Action: ActionKick, UserID: targetUserID,
		Meta: map[string]any{"admin_id": adminID, "reason": reason, "session_removed": removed},
	})
}

// Recent exposes the read side for the admin surface.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	return r.store.Recent(ctx, limit)
}

func (r *Recorder) insert(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := r.store.Insert(ctx, ev); err != nil {
		r.log.Error("audit.insert.fail", "err", err, "action", ev.Action)
	}
}
