package assignment

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/assignctl/internal/logfields"
	"git.home.luguber.info/inful/assignctl/internal/metrics"
)

// Journal receives every mutation that passes through a Gate. Implementations
// are best-effort sinks; a failing journal never aborts a run.
type Journal interface {
	Record(ctx context.Context, runID string, m Mutation, applied bool) error
}

// RunTracker is implemented by journals that also record where a run starts
// and ends.
type RunTracker interface {
	RunStarted(ctx context.Context, runID, operation, assignment string, live bool) error
	RunFinished(ctx context.Context, runID, operation string, mutations int, err error) error
}

// Gate is the single choke point for state-changing calls. Its mode is fixed
// at construction for the lifetime of one run.
type Gate struct {
	live     bool
	runID    string
	logger   *slog.Logger
	recorder metrics.Recorder
	journals []Journal
	planned  []Mutation
}

func newGate(live bool, runID string, logger *slog.Logger, rec metrics.Recorder, journals []Journal) *Gate {
	return &Gate{
		live:     live,
		runID:    runID,
		logger:   logger,
		recorder: rec,
		journals: journals,
	}
}

// Live reports whether the gate performs writes.
func (g *Gate) Live() bool { return g.live }

// Planned returns every mutation submitted so far, in submission order.
func (g *Gate) Planned() []Mutation { return append([]Mutation(nil), g.planned...) }

// Submit logs m and, in live mode, performs it with apply. The log line is the
// same in both modes. An apply error is returned unchanged.
func (g *Gate) Submit(ctx context.Context, m Mutation, apply func(context.Context) error) error {
	g.planned = append(g.planned, m)
	g.logger.LogAttrs(ctx, slog.LevelInfo, "Mutation: "+m.String(), append(m.attrs(), logfields.DryRun(!g.live))...)

	if !g.live {
		g.recorder.IncMutation(string(m.Kind), false)
		g.journal(ctx, m, false)
		return nil
	}

	if err := apply(ctx); err != nil {
		g.logger.LogAttrs(ctx, slog.LevelError, "Mutation failed", append(m.attrs(), logfields.Error(err))...)
		return err
	}
	g.recorder.IncMutation(string(m.Kind), true)
	g.journal(ctx, m, true)
	g.logger.LogAttrs(ctx, slog.LevelDebug, "Mutation applied", m.attrs()...)
	return nil
}

func (g *Gate) journal(ctx context.Context, m Mutation, applied bool) {
	for _, j := range g.journals {
		if err := j.Record(ctx, g.runID, m, applied); err != nil {
			g.logger.Warn("Journal write failed", logfields.Mutation(string(m.Kind)), logfields.Repository(m.Repository), logfields.Error(err))
		}
	}
}
