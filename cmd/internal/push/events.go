package push

// EventType names a push event on the wire.
type EventType string

const (
	// EventConnected acknowledges a freshly opened connection.
	EventConnected EventType = "connected"
	// EventKicked tells the client its session was administratively revoked.
	EventKicked EventType = "kicked"
	// EventSessionAlert tells an old tab its session was replaced by a new login.
	EventSessionAlert EventType = "session_alert"
)

// Event is one logical push event. Data becomes the JSON payload of the
// frame; a nil Data marshals as an empty object.
type Event struct {
	Type EventType
	Data map[string]any
}

// Sink is a live push transport for one client connection. Implementations
// must be safe for concurrent use: the hub writes from broadcast and
// heartbeat goroutines.
//
// A failed write means the connection is dead; the hub removes it and
// never writes to it again.
type Sink interface {
	WriteEvent(ev Event) error
	WriteHeartbeat() error
}
