// Package eventstore journals assignctl runs and the mutations they computed
// in SQLite, and rebuilds per-run summaries from that journal.
package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	runStatusRunning = "running"
)

// RunSummary is a read model of one top-level operation.
type RunSummary struct {
	RunID       string         `json:"run_id"`
	Operation   string         `json:"operation"`
	Assignment  string         `json:"assignment,omitempty"`
	Live        bool           `json:"live"`
	Status      string         `json:"status"` // "running", "success", "failed", "aborted"
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
	Mutations   int            `json:"mutations"`
	Applied     int            `json:"applied"`
	ByKind      map[string]int `json:"by_kind,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// RunHistoryProjection maintains an in-memory view of run history
// reconstructed from the journal.
type RunHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	runs     map[string]*RunSummary
	maxSize  int
	lastSync time.Time
}

// NewRunHistoryProjection creates a projection backed by store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from every event in the store.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:     runID,
			Status:    runStatusRunning,
			StartedAt: event.Timestamp(),
			ByKind:    make(map[string]int),
		}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeRunStarted:
		var payload RunStartedPayload
		if err := DecodePayload(event, &payload); err == nil {
			summary.Operation = payload.Operation
			summary.Assignment = payload.Assignment
			summary.Live = payload.Live
		}
		summary.StartedAt = event.Timestamp()

	case TypeMutationRecorded:
		var payload MutationPayload
		if err := DecodePayload(event, &payload); err == nil {
			summary.Mutations++
			summary.ByKind[payload.Kind]++
			if payload.Applied {
				summary.Applied++
			}
		}

	case TypeRunCompleted:
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Duration = now.Sub(summary.StartedAt)
		var payload RunCompletedPayload
		if err := DecodePayload(event, &payload); err == nil {
			summary.Status = payload.Status
			summary.Error = payload.Error
			if summary.Operation == "" {
				summary.Operation = payload.Operation
			}
		}
		p.pruneLocked()
	}
}

// pruneLocked keeps the newest maxSize finished runs plus any running ones.
func (p *RunHistoryProjection) pruneLocked() {
	finished := make([]*RunSummary, 0, len(p.runs))
	for _, s := range p.runs {
		if s.Status != runStatusRunning {
			finished = append(finished, s)
		}
	}
	if len(finished) <= p.maxSize {
		return
	}
	sortNewestFirst(finished)
	for _, s := range finished[p.maxSize:] {
		delete(p.runs, s.RunID)
	}
}

func sortNewestFirst(runs []*RunSummary) {
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
}

// GetHistory returns copies of every known run, newest first.
func (p *RunHistoryProjection) GetHistory() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	list := make([]*RunSummary, 0, len(p.runs))
	for _, s := range p.runs {
		list = append(list, s)
	}
	sortNewestFirst(list)

	out := make([]RunSummary, 0, len(list))
	for _, s := range list {
		out = append(out, s.copy())
	}
	return out
}

// GetRun returns the summary for one run.
func (p *RunHistoryProjection) GetRun(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, ok := p.runs[runID]
	if !ok {
		return RunSummary{}, false
	}
	return summary.copy(), true
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *RunHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}

func (s *RunSummary) copy() RunSummary {
	cp := *s
	cp.ByKind = make(map[string]int, len(s.ByKind))
	for k, v := range s.ByKind {
		cp.ByKind[k] = v
	}
	return cp
}
