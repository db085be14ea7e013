package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"vigil/cmd/internal/session"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("push: response writer does not support streaming")

var errSinkClosed = errors.New("push: sink closed")

// SSESink writes line-oriented text frames to an event-stream response:
// an "event:" line, a "data:" line with a JSON payload, and a blank line
// terminator. Heartbeats are comment-only frames.
type SSESink struct {
	mu     sync.Mutex
	w      io.Writer
	flush  http.Flusher
	closed bool
}

// NewSSESink wraps a ResponseWriter. It fails when the writer cannot flush,
// which a buffering proxy in front of the handler can cause.
func NewSSESink(w http.ResponseWriter) (*SSESink, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &SSESink{w: w, flush: f}, nil
}

// WriteEvent writes one named frame with a JSON data payload.
func (s *SSESink) WriteEvent(ev Event) error {
	data := ev.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSinkClosed
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type, payload); err != nil {
		return err
	}
	s.flush.Flush()
	return nil
}

// WriteHeartbeat writes a comment-only keep-alive frame.
func (s *SSESink) WriteHeartbeat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSinkClosed
	}
	if _, err := io.WriteString(s.w, ": heartbeat\n\n"); err != nil {
		return err
	}
	s.flush.Flush()
	return nil
}

// CloseWrites makes all further writes fail. The handler must call this
// before returning: hub goroutines may hold a snapshot that still points
// at this sink, and the ResponseWriter is invalid once the handler exits.
func (s *SSESink) CloseWrites() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// SSEHandler serves the long-lived push stream for the authenticated user.
type SSEHandler struct {
	log *slog.Logger
	hub *Hub
}

// NewSSEHandler constructs the /events handler.
func NewSSEHandler(log *slog.Logger, hub *Hub) *SSEHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SSEHandler{log: log, hub: hub}
}

// ServeHTTP registers the connection and blocks for the life of the tab.
// It must run behind the auth middleware.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sink, err := NewSSESink(w)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	conn := h.hub.Open(sess.UserID, sink, time.Now().UTC())

	// Deregister synchronously on disconnect so no further broadcast
	// touches this sink after the handler returns.
	defer func() {
		h.hub.Close(sess.UserID, sink)
		sink.CloseWrites()
	}()

	select {
	case <-r.Context().Done():
	case <-conn.Done():
	}
}
