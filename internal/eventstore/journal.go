package eventstore

import (
	"context"
	stderrors "errors"

	"git.home.luguber.info/inful/assignctl/internal/assignment"
)

// Journal records runs and their mutations in a Store. It satisfies both
// assignment.Journal and assignment.RunTracker.
type Journal struct {
	store Store
}

// NewJournal wraps store.
func NewJournal(store Store) *Journal { return &Journal{store: store} }

var (
	_ assignment.Journal    = (*Journal)(nil)
	_ assignment.RunTracker = (*Journal)(nil)
)

// Record appends a MutationRecorded event.
func (j *Journal) Record(ctx context.Context, runID string, m assignment.Mutation, applied bool) error {
	ev, err := NewMutationRecorded(runID, MutationPayload{
		Kind:       string(m.Kind),
		Repository: m.Repository,
		Principal:  m.Principal,
		Class:      string(m.Class),
		Level:      string(m.Level),
		Previous:   m.Previous,
		Template:   m.Template,
		Applied:    applied,
	})
	if err != nil {
		return err
	}
	return j.append(ctx, ev)
}

// RunStarted appends a RunStarted event.
func (j *Journal) RunStarted(ctx context.Context, runID, operation, assignmentName string, live bool) error {
	ev, err := NewRunStarted(runID, RunStartedPayload{Operation: operation, Assignment: assignmentName, Live: live})
	if err != nil {
		return err
	}
	return j.append(ctx, ev)
}

// RunFinished appends a RunCompleted event classifying runErr.
func (j *Journal) RunFinished(ctx context.Context, runID, operation string, mutations int, runErr error) error {
	p := RunCompletedPayload{Operation: operation, Status: "success", Mutations: mutations}
	switch {
	case runErr == nil:
	case stderrors.Is(runErr, assignment.ErrDeletionNotConfirmed):
		p.Status = "aborted"
		p.Error = runErr.Error()
	default:
		p.Status = "failed"
		p.Error = runErr.Error()
	}
	ev, err := NewRunCompleted(runID, p)
	if err != nil {
		return err
	}
	return j.append(ctx, ev)
}

func (j *Journal) append(ctx context.Context, ev Event) error {
	return j.store.Append(ctx, ev.RunID(), ev.Type(), ev.Payload(), ev.Metadata())
}
