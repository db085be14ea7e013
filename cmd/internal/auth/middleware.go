package auth

import (
	"net/http"
	"strings"
	"time"

	"vigil/cmd/internal/session"
)

// RequireSession resolves the session token from the cookie or the
// Authorization header, refreshes activity, and places the session on the
// request context.
//
// Any failure clears the client's cookie and answers 401. A kick-mark hit
// is surfaced with its own error code so the client can show "you were
// signed out elsewhere" instead of a generic expiry message; an unknown or
// absent token stays deliberately indistinct ("expired" vs "never existed"
// must not leak).
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := resolveToken(r)
		if tok == "" {
			h.unauthenticated(w, "unauthenticated")
			return
		}

		sess, ok := h.reg.Lookup(tok)
		if !ok {
			h.unauthenticated(w, "unauthenticated")
			return
		}

		// A revoke can race an in-flight request that still holds a live
		// token; the kick mark closes that window.
		if h.reg.IsKicked(sess.UserID) {
			h.reg.Remove(tok)
			h.unauthenticated(w, "session_kicked")
			return
		}

		now := time.Now().UTC()
		h.reg.Touch(now, tok)
		sess.LastActiveAt = now

		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

// RequireAdmin layers an admin-role check over RequireSession.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return h.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())
		if !sess.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (h *Handler) unauthenticated(w http.ResponseWriter, code string) {
	// The client must discard its stored credential and redirect to login.
	h.clearCookie(w)
	msg := "please log in again"
	if code == "session_kicked" {
		msg = "you were signed out elsewhere"
	}
	writeError(w, http.StatusUnauthorized, code, msg)
}

func resolveToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	authz := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(authz, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
