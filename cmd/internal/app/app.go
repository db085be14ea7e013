// Package app wires the vigil runtime: config, logging, the session
// subsystem singletons, HTTP routes, and background sweeps.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"vigil/cmd/identity"
	"vigil/cmd/internal/admin"
	"vigil/cmd/internal/audit"
	"vigil/cmd/internal/auth"
	"vigil/cmd/internal/guard"
	"vigil/cmd/internal/push"
	"vigil/cmd/internal/session"
)

// App owns the process-wide singletons: exactly one Registry, one Guard,
// and one Hub exist per server, constructed here and passed by reference
// to the handlers.
type App struct {
	cfg Config
	log Logger

	reg      *session.Registry
	guard    *guard.Guard
	hub      *push.Hub
	presence *session.PresenceView
	kicks    session.KickCache

	dbPool    *pgxpool.Pool
	dbEnabled bool

	users    identity.Store
	auditSt  audit.Store
	recorder *audit.Recorder

	geo *admin.GeoResolver

	authHandler  *auth.Handler
	adminHandler *admin.Handler
	sseHandler   *push.SSEHandler
	wsGateway    *push.WSGateway
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}

	// Kick marks: shared redis cache when configured, in-process otherwise.
	if cfg.RedisAddr != "" {
		kc, err := session.NewRedisKickCache(ctx, session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.kicks = kc
		log.Info("kickmarks.redis", "addr", cfg.RedisAddr)
	} else {
		a.kicks = session.NewMemoryKickCache()
		log.Info("kickmarks.inmemory")
	}

	a.reg = session.NewRegistry(log, a.kicks,
		session.WithStaleAfter(cfg.SessionStaleAfter),
		session.WithKickMarkTTL(cfg.KickMarkTTL),
	)
	a.guard = guard.New(log,
		guard.WithPolicy(cfg.LockoutThreshold, cfg.FailureWindow, cfg.LockoutDuration),
	)
	a.hub = push.NewHub(log)
	a.presence = session.NewPresenceView(a.reg, cfg.PresenceWindow)

	if err := a.initStores(ctx, cfg, log); err != nil {
		return nil, err
	}
	a.recorder = audit.NewRecorder(log, a.auditSt)

	if cfg.GeoIPPath != "" {
		geo, err := admin.NewGeoResolver(cfg.GeoIPPath)
		if err != nil {
			return nil, err
		}
		a.geo = geo
		log.Info("geoip.enabled", "path", cfg.GeoIPPath)
	}

	a.authHandler = auth.NewHandler(log, a.guard, a.reg, a.hub, a.users, a.recorder, cfg.CookieSecure)
	a.adminHandler = admin.NewHandler(log, admin.NewControl(log, a.reg, a.hub, a.presence, a.recorder, a.geo))
	a.sseHandler = push.NewSSEHandler(log, a.hub)
	a.wsGateway = push.NewWSGateway(log, a.hub, cfg.AllowedOrigins)

	return a, nil
}

// initStores decides between Postgres-backed persistence and in-memory mode.
func (a *App) initStores(ctx context.Context, cfg Config, log Logger) error {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_stores")

		mem := identity.NewMemoryStore()
		if cfg.BootstrapAdminPass != "" {
			hash, err := identity.HashPassword(cfg.BootstrapAdminPass)
			if err != nil {
				return err
			}
			id, err := session.NewID(time.Now().UTC())
			if err != nil {
				return err
			}
			mem.Seed(identity.User{
				ID:           id,
				Username:     cfg.BootstrapAdminUser,
				Role:         string(session.RoleAdmin),
				PasswordHash: hash,
				CreatedAt:    time.Now().UTC(),
			})
			log.Info("bootstrap.admin.seeded", "username", cfg.BootstrapAdminUser)
		} else {
			log.Warn("bootstrap.admin.skipped", "reason", "VIGIL_BOOTSTRAP_ADMIN_PASS not set")
		}

		a.users = mem
		a.auditSt = audit.NewMemoryStore(0)
		return nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	a.dbPool = pool
	a.dbEnabled = true
	log.Info("db.enabled.postgres_stores")

	users, err := identity.NewPostgresStore(pool, cfg.DBSchema)
	if err != nil {
		pool.Close()
		return err
	}
	auditSt, err := audit.NewPostgresStore(pool, cfg.DBSchema)
	if err != nil {
		pool.Close()
		return err
	}

	a.users = users
	a.auditSt = auditSt
	return nil
}

// Run starts the HTTP server, the sweeps, and the heartbeat loop, and
// blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
		// WriteTimeout stays zero: /events and /ws are long-lived streams.
		// Per-write deadlines live in the sinks instead.
	}

	sched, err := startSweeps(a.log, a.cfg, a.reg, a.guard)
	if err != nil {
		return err
	}

	hbCtx, hbCancel := context.WithCancel(ctx)
	go runHeartbeat(hbCtx, a.log, a.hub, a.cfg.HeartbeatInterval)

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		hbCancel()
		a.shutdown(sched)
		return err
	}

	hbCancel()

	// Drop push connections first so their handlers return before the
	// server shutdown deadline starts counting.
	a.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.shutdown(sched)
		return err
	}

	a.shutdown(sched)
	a.log.Info("server.stopped")
	return nil
}

func (a *App) shutdown(sched *cron.Cron) {
	if sched != nil {
		<-sched.Stop().Done()
	}
	if err := a.kicks.Close(); err != nil {
		a.log.Error("kickmarks.close.fail", "err", err)
	}
	if err := a.geo.Close(); err != nil {
		a.log.Error("geoip.close.fail", "err", err)
	}
	if a.auditSt != nil {
		_ = a.auditSt.Close()
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}
