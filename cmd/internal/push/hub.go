package push

import (
	"log/slog"
	"sync"
	"time"

	"vigil/cmd/internal/metrics"
)

// Hub is the fan-out broadcaster for revocation and liveness events.
//
// Concurrency guarantees:
// - Open/Close are safe under concurrent Broadcast/Heartbeat.
// - Broadcast iterates a snapshot, so a connection closing mid-broadcast
//   neither panics the broadcaster nor drops delivery to the rest.
// - A write failure removes that connection and only that connection.
type Hub struct {
	log *slog.Logger

	mu    sync.RWMutex
	conns map[string]map[Sink]*Conn // userID -> sink -> conn
	total int
}

// NewHub constructs an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:   log,
		conns: make(map[string]map[Sink]*Conn),
	}
}

// Open registers a push transport for a user and immediately sends the
// "connected" acknowledgement through it. If the ack write fails the
// connection is removed again and the returned Conn is already done.
func (h *Hub) Open(userID string, sink Sink, now time.Time) *Conn {
	c := newConn(userID, sink, now)

	h.mu.Lock()
	bySink, ok := h.conns[userID]
	if !ok {
		bySink = make(map[Sink]*Conn)
		h.conns[userID] = bySink
	}
	bySink[sink] = c
	h.total++
	total := h.total
	h.mu.Unlock()

	metrics.PushConnections.Set(float64(total))
	h.log.Info("hub.conn.open", "user_id", userID, "user_conns", h.Connections(userID))

	if err := sink.WriteEvent(Event{Type: EventConnected, Data: map[string]any{
		"user_id": userID,
	}}); err != nil {
		h.log.Info("hub.conn.ack.fail", "user_id", userID, "err", err)
		h.remove(userID, sink, "ack write failed")
	}
	return c
}

// Close removes a transport from the index. Idempotent.
func (h *Hub) Close(userID string, sink Sink) {
	h.remove(userID, sink, "closed")
}

// Broadcast writes ev to every live connection for userID and returns how
// many received it. Connections whose write fails are pruned.
func (h *Hub) Broadcast(userID string, ev Event) (delivered int) {
	for _, c := range h.snapshotUser(userID) {
		if err := c.sink.WriteEvent(ev); err != nil {
			h.log.Info("hub.write.fail", "user_id", userID, "event", string(ev.Type), "err", err)
			metrics.DeadConnections.Inc()
			h.remove(userID, c.sink, "write failed")
			continue
		}
		delivered++
	}

	metrics.BroadcastEvents.Add(float64(delivered))
	h.log.Info("hub.broadcast", "user_id", userID, "event", string(ev.Type), "delivered", delivered)
	return delivered
}

// Heartbeat writes a keep-alive frame to every open connection. It both
// defeats idle-timeout proxies and discovers dead connections promptly.
func (h *Hub) Heartbeat() (sent, pruned int) {
	for _, c := range h.snapshotAll() {
		if err := c.sink.WriteHeartbeat(); err != nil {
			metrics.DeadConnections.Inc()
			h.remove(c.userID, c.sink, "heartbeat failed")
			pruned++
			continue
		}
		sent++
	}
	return sent, pruned
}

// Connections returns how many live connections a user holds.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Total returns the number of open connections across all users.
func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Shutdown removes every connection, signalling their handlers to return.
func (h *Hub) Shutdown() {
	for _, c := range h.snapshotAll() {
		h.remove(c.userID, c.sink, "shutdown")
	}
}

func (h *Hub) snapshotUser(userID string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	bySink := h.conns[userID]
	out := make([]*Conn, 0, len(bySink))
	for _, c := range bySink {
		out = append(out, c)
	}
	return out
}

func (h *Hub) snapshotAll() []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Conn, 0, h.total)
	for _, bySink := range h.conns {
		for _, c := range bySink {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) remove(userID string, sink Sink, reason string) {
	h.mu.Lock()
	var c *Conn
	if bySink, ok := h.conns[userID]; ok {
		if c, ok = bySink[sink]; ok {
			delete(bySink, sink)
			h.total--
			if len(bySink) == 0 {
				delete(h.conns, userID)
			}
		}
	}
	total := h.total
	h.mu.Unlock()

	if c == nil {
		return
	}

	// Signal after removal so no broadcaster still finds the conn in the
	// index while its handler tears the transport down.
	c.markClosed()

	metrics.PushConnections.Set(float64(total))
	h.log.Info("hub.conn.close", "user_id", userID, "reason", reason)
}
