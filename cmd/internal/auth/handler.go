// Package auth is the HTTP surface of the session subsystem: login,
// logout, the current-principal endpoint, and the request guard middleware
// every protected route sits behind.
package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vigil/cmd/identity"
	"vigil/cmd/internal/audit"
	"vigil/cmd/internal/guard"
	"vigil/cmd/internal/metrics"
	"vigil/cmd/internal/push"
	"vigil/cmd/internal/session"
	"vigil/cmd/security/token"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "vigil_session"

const maxLoginBody = 4 << 10

// Handler owns the authentication HTTP endpoints.
type Handler struct {
	log   *slog.Logger
	guard *guard.Guard
	reg   *session.Registry
	hub   *push.Hub
	users identity.Store
	audit *audit.Recorder

	cookieSecure bool
}

// NewHandler wires the auth endpoints.
func NewHandler(log *slog.Logger, g *guard.Guard, reg *session.Registry, hub *push.Hub, users identity.Store, rec *audit.Recorder, cookieSecure bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log: log, guard: g, reg: reg, hub: hub, users: users, audit: rec,
		cookieSecure: cookieSecure,
	}
}

// Register mounts the auth routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.Handle("POST /auth/logout", h.RequireSession(http.HandlerFunc(h.handleLogout)))
	mux.Handle("GET /auth/me", h.RequireSession(http.HandlerFunc(h.handleMe)))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	ip := clientIP(r)
	ua := r.UserAgent()

	var req loginRequest
	if err := decodeJSON(w, r, maxLoginBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "username and password required")
		return
	}

	// A login attempted during an active lock does not count as a new failure.
	if v := h.guard.CheckLock(now, username); v.Locked {
		h.writeLocked(w, now, v)
		h.audit.LoginLocked(r.Context(), username, ip, ua, v.RetryAfter(now))
		metrics.Logins.WithLabelValues("locked").Inc()
		return
	}

	user, err := identity.VerifyCredentials(r.Context(), h.users, username, req.Password)
	if err != nil {
		if !errors.Is(err, identity.ErrBadCredentials) {
			h.log.Error("login.verify.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "try again later")
			return
		}

		v := h.guard.RecordFailure(now, username)
		h.audit.LoginFailed(r.Context(), username, ip, ua, "bad_credentials")

		if v.Locked {
			h.writeLocked(w, now, v)
			metrics.Logins.WithLabelValues("locked").Inc()
			return
		}

		writeJSON(w, http.StatusUnauthorized, failedResponse{
			Error:             apiError{Code: "bad_credentials", Message: "invalid username or password"},
			RemainingAttempts: v.Remaining,
		})
		metrics.Logins.WithLabelValues("failed").Inc()
		return
	}

	h.guard.Clear(username)

	tok, err := token.New(token.DefaultBytes)
	if err != nil {
		h.log.Error("login.token.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "try again later")
		return
	}
	sid, err := session.NewID(now)
	if err != nil {
		h.log.Error("login.session_id.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "try again later")
		return
	}

	sess := session.Session{
		Token:        tok,
		ID:           sid,
		UserID:       user.ID,
		Username:     user.Username,
		Role:         session.Role(user.Role),
		LoginAt:      now,
		LastActiveAt: now,
		IP:           ip,
		UserAgent:    ua,
	}

	if _, hadPrior := h.reg.Register(sess); hadPrior {
		// Tell the old tab it was replaced; its session token is already dead.
		h.hub.Broadcast(user.ID, push.Event{
			Type: push.EventSessionAlert,
			Data: map[string]any{"reason": "signed in from another location"},
		})
	}

	h.setCookie(w, tok)
	h.audit.LoginSuccess(r.Context(), user.ID, user.Username, sid, ip, ua)
	metrics.Logins.WithLabelValues("success").Inc()
	h.log.Info("login.success", "user_id", user.ID, "session_id", sid)

	writeJSON(w, http.StatusOK, loginResponse{
		Token: tok,
		User:  userResponse{ID: user.ID, Username: user.Username, Role: user.Role},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	h.reg.Remove(sess.Token)
	h.clearCookie(w)
	h.audit.Logout(r.Context(), sess.UserID, sess.Username, sess.ID, clientIP(r), r.UserAgent())

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{ID: sess.UserID, Username: sess.Username, Role: string(sess.Role)},
		"session": map[string]any{
			"id":             sess.ID,
			"login_at":       sess.LoginAt,
			"last_active_at": sess.LastActiveAt,
		},
	})
}

func (h *Handler) writeLocked(w http.ResponseWriter, now time.Time, v guard.Verdict) {
	retry := v.RetryAfter(now)
	if retry > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(retry.Seconds()), 10))
	}
	writeJSON(w, http.StatusTooManyRequests, lockedResponse{
		Error:       apiError{Code: "locked_out", Message: "too many failed attempts"},
		LockedUntil: v.LockedUntil,
	})
}

func (h *Handler) setCookie(w http.ResponseWriter, tok string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientIP resolves the caller's IP, trusting forwarding headers first.
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return net.ParseIP(r.RemoteAddr)
	}
	return net.ParseIP(host)
}
