package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"vigil/cmd/internal/session"

	"github.com/coder/websocket"
)

const (
	wsSubprotocol = "vigil.push.v1"

	wsDefaultWriteTimeout = 5 * time.Second
)

// wsEnvelope is the JSON frame sent over the websocket transport. It
// carries the same events as the SSE stream.
type wsEnvelope struct {
	Event EventType      `json:"event"`
	Data  map[string]any `json:"data"`
}

// wsSink adapts a websocket connection to the Sink interface.
//
// Writes are serialized by a mutex; the hub may write from broadcast and
// heartbeat goroutines concurrently.
type wsSink struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (s *wsSink) write(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, payload)
}

func (s *wsSink) WriteEvent(ev Event) error {
	payload, err := wsPayload(ev)
	if err != nil {
		return err
	}
	return s.write(payload)
}

// wsPayload encodes one event as the wire frame. A nil Data marshals as an
// empty object, same as the SSE sink.
func wsPayload(ev Event) ([]byte, error) {
	data := ev.Data
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(wsEnvelope{Event: ev.Type, Data: data})
}

func (s *wsSink) WriteHeartbeat() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	return s.conn.Ping(ctx)
}

// WSGateway upgrades authenticated requests to a WebSocket push connection.
// Clients that cannot hold an SSE stream use this transport instead; the
// event contract is identical.
type WSGateway struct {
	log *slog.Logger
	hub *Hub

	originPatterns []string
	writeTimeout   time.Duration
}

// NewWSGateway constructs a gateway. allowedOrigins lists full origins
// (scheme://host); their host patterns are handed to websocket.Accept.
func NewWSGateway(log *slog.Logger, hub *Hub, allowedOrigins []string) *WSGateway {
	if log == nil {
		log = slog.Default()
	}
	return &WSGateway{
		log:            log,
		hub:            hub,
		originPatterns: originPatterns(allowedOrigins),
		writeTimeout:   wsDefaultWriteTimeout,
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client disconnects or the hub prunes it. Must run behind the auth
// middleware.
func (g *WSGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{wsSubprotocol},
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Info("ws.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	sink := &wsSink{conn: conn, writeTimeout: g.writeTimeout}
	hc := g.hub.Open(sess.UserID, sink, time.Now().UTC())
	defer g.hub.Close(sess.UserID, sink)

	// The push stream is server-to-client only, but reading is what
	// surfaces the close frame when the client disconnects.
	readFailed := make(chan struct{})
	go func() {
		defer close(readFailed)
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				return
			}
		}
	}()

	select {
	case <-r.Context().Done():
	case <-hc.Done():
	case <-readFailed:
	}
}

// originPatterns derives host patterns from full origins, the shape
// websocket.Accept expects for cross-origin authorization.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
