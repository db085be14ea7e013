package app

import (
	"net/http"
	"time"

	"vigil/cmd/internal/metrics"
)

func registerHTTP(mux *http.ServeMux, a *App) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.dbEnabled && a.dbPool != nil {
			if err := PingDB(r.Context(), a.dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				a.log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", metrics.Handler())

	a.authHandler.Register(mux)

	mux.Handle("GET /events", a.authHandler.RequireSession(a.sseHandler))
	mux.Handle("GET /ws", a.authHandler.RequireSession(a.wsGateway))

	// Admin routes enforce the role themselves; the middleware only
	// authenticates.
	adminMux := http.NewServeMux()
	a.adminHandler.Register(adminMux)
	mux.Handle("/admin/", a.authHandler.RequireSession(adminMux))
}
