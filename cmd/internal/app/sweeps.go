package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"vigil/cmd/internal/guard"
	"vigil/cmd/internal/push"
	"vigil/cmd/internal/session"
)

// startSweeps schedules the background maintenance jobs: the registry
// staleness sweep (which also purges kick marks) and the guard counter
// sweep. Each job runs the same locks as the foreground operations and is
// isolated, so one failing cycle cannot kill the scheduler or starve the
// next tick.
func startSweeps(log *slog.Logger, cfg Config, reg *session.Registry, g *guard.Guard) (*cron.Cron, error) {
	c := cron.New()

	every := fmt.Sprintf("@every %s", cfg.SweepInterval)
	if _, err := c.AddFunc(every, isolate(log, "registry", func() {
		reg.Sweep(time.Now().UTC())
	})); err != nil {
		return nil, fmt.Errorf("schedule registry sweep: %w", err)
	}

	if _, err := c.AddFunc("@hourly", isolate(log, "guard", func() {
		if n := g.Sweep(time.Now().UTC()); n > 0 {
			log.Info("guard.sweep", "removed", n)
		}
	})); err != nil {
		return nil, fmt.Errorf("schedule guard sweep: %w", err)
	}

	c.Start()
	return c, nil
}

// isolate wraps a sweep so a panic in one cycle is logged, not fatal.
func isolate(log *slog.Logger, name string, fn func()) func() {
	return func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("sweep.panic", "sweep", name, "panic", rec)
			}
		}()
		fn()
	}
}

// runHeartbeat drives the hub's keep-alive loop until ctx is cancelled.
func runHeartbeat(ctx context.Context, log *slog.Logger, hub *push.Hub, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sent, pruned := hub.Heartbeat()
			if pruned > 0 {
				log.Info("hub.heartbeat", "sent", sent, "pruned", pruned)
			}
		}
	}
}
