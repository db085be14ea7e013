// Package metrics holds vigil's Prometheus collectors.
//
// Collectors are package-level and registered on the default registry so
// every subsystem can update them without plumbing a registry handle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveSessions tracks the number of live sessions in the registry.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigil_active_sessions",
		Help: "Number of live sessions in the registry.",
	})

	// PushConnections tracks open push connections across all users.
	PushConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigil_push_connections",
		Help: "Number of open push connections (SSE + WebSocket).",
	})

	// Logins counts login attempts by result (success, failed, locked).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	// Lockouts counts lockouts triggered by the login guard.
	Lockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_lockouts_total",
		Help: "Account lockouts triggered by repeated login failures.",
	})

	// Kicks counts administrative kicks.
	Kicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_kicks_total",
		Help: "Administrative session kicks.",
	})

	// BroadcastEvents counts events delivered to push connections.
	BroadcastEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_broadcast_events_total",
		Help: "Events delivered to push connections.",
	})

	// DeadConnections counts connections pruned after a failed write.
	DeadConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_dead_connections_total",
		Help: "Push connections pruned after a write failure.",
	})

	// SweptSessions counts sessions removed by the staleness sweep.
	SweptSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vigil_swept_sessions_total",
		Help: "Sessions removed by the background staleness sweep.",
	})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
