package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"git.home.luguber.info/inful/assignctl/internal/config"
	"git.home.luguber.info/inful/assignctl/internal/eventstore"
)

// HistoryCmd implements the 'history' command. It reads the SQLite journal
// only and needs no token.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
	RunID string `name:"run" help:"Show a single run by id"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Resolve(root.Config)
	if err != nil {
		return err
	}
	if cfg.Journal.SQLitePath == "" {
		return config.ErrConfiguration.WithContext("field", "journal.sqlite_path")
	}
	store, err := eventstore.NewSQLiteStore(cfg.Journal.SQLitePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return h.print(context.Background(), g, store)
}

func (h *HistoryCmd) print(ctx context.Context, g *Global, store eventstore.Store) error {
	proj := eventstore.NewRunHistoryProjection(store, h.Limit)
	if err := proj.Rebuild(ctx); err != nil {
		return err
	}

	if h.RunID != "" {
		run, ok := proj.GetRun(h.RunID)
		if !ok {
			return eventstore.ErrRunNotFound.WithContext("run_id", h.RunID)
		}
		printRun(g, run)
		kinds := make([]string, 0, len(run.ByKind))
		for kind := range run.ByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			_, _ = fmt.Fprintf(g.Out, "  %-18s %d\n", kind, run.ByKind[kind])
		}
		if run.Error != "" {
			_, _ = fmt.Fprintf(g.Out, "  error: %s\n", run.Error)
		}
		return nil
	}

	for _, run := range proj.GetHistory() {
		printRun(g, run)
	}
	return nil
}

func printRun(g *Global, run eventstore.RunSummary) {
	mode := "dry-run"
	if run.Live {
		mode = "live"
	}
	_, _ = fmt.Fprintf(g.Out, "%s  %s  %-6s %-12s %-8s %-7s mutations=%d applied=%d\n",
		run.StartedAt.Local().Format(time.DateTime), run.RunID, run.Operation,
		run.Assignment, run.Status, mode, run.Mutations, run.Applied)
}
