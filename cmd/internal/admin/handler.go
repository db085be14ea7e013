package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vigil/cmd/internal/session"
)

// Handler exposes the admin operations over HTTP. Routes must be mounted
// behind the auth middleware; Handler enforces the admin role itself.
type Handler struct {
	log *slog.Logger
	ctl *Control
}

// NewHandler constructs the admin HTTP surface.
func NewHandler(log *slog.Logger, ctl *Control) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, ctl: ctl}
}

// Register mounts the admin routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/sessions", h.handleListSessions)
	mux.HandleFunc("POST /admin/kick/{userID}", h.handleKick)
	mux.HandleFunc("DELETE /admin/sessions/{userID}", h.handleKick)
	mux.HandleFunc("GET /admin/audit", h.handleRecentAudit)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	sessions := h.ctl.ListSessions(time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleRecentAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events, err := h.ctl.RecentAudit(r.Context(), limit)
	if err != nil {
		h.log.Error("admin.audit.read.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "try again later")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type kickRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleKick(w http.ResponseWriter, r *http.Request) {
	adminSess, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	userID := strings.TrimSpace(r.PathValue("userID"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "missing user id")
		return
	}

	var req kickRequest
	if r.Body != nil {
		// The reason body is optional on both verbs.
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req)
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "signed out by an administrator"
	}

	res := h.ctl.Kick(r.Context(), time.Now().UTC(), adminSess.UserID, userID, reason)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "please log in again")
		return session.Session{}, false
	}
	if !sess.IsAdmin() {
		writeError(w, http.StatusForbidden, "forbidden", "admin role required")
		return session.Session{}, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": msg}})
}
