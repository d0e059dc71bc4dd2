package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/assignctl/internal/logfields"
	"git.home.luguber.info/inful/assignctl/internal/schedule"
)

// WatchCmd implements the 'watch' command: sync on a fixed interval until
// SIGINT or SIGTERM. Runs never overlap.
type WatchCmd struct {
	Sync     SyncCmd       `embed:""`
	Interval time.Duration `help:"Time between runs (defaults to watch.interval from config)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	rt, err := root.open()
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if err := w.Sync.levels().Validate(); err != nil {
		return err
	}
	interval := w.Interval
	if interval <= 0 {
		interval = rt.cfg.Watch.Interval.Std()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return w.watch(ctx, g, rt, interval)
}

func (w *WatchCmd) watch(ctx context.Context, g *Global, rt *runtime, interval time.Duration) error {
	sched, err := schedule.NewScheduler(slog.Default())
	if err != nil {
		return err
	}
	if _, err := sched.Every(interval, "sync "+w.Sync.Assignment, w.task(g, rt)); err != nil {
		return err
	}

	slog.Info("Watch started",
		logfields.Assignment(w.Sync.Assignment),
		slog.Duration("interval", interval),
		logfields.DryRun(!rt.service.Live()))
	sched.Start(ctx)

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watch...")
	if err := sched.Stop(); err != nil {
		return err
	}
	slog.Info("Watch stopped")
	return nil
}

func (w *WatchCmd) task(g *Global, rt *runtime) schedule.Task {
	return func(ctx context.Context) error {
		defer rt.flushMetrics()
		mutations, err := rt.service.SyncPerms(ctx, w.Sync.Assignment, w.Sync.levels())
		if err != nil {
			return err
		}
		printMutations(g, rt.service.Live(), mutations)
		return nil
	}
}
