// Package notify publishes journaled mutations and run outcomes to NATS so
// other systems (course dashboards, audit collectors) can follow assignctl runs.
package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/assignctl/internal/assignment"
	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
)

// ErrPublishFailed is returned when a message could not be handed to NATS.
var ErrPublishFailed = errors.JournalError("failed to publish event").Build()

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// MutationEvent is published on <subject>.<kind> for every mutation.
type MutationEvent struct {
	RunID      string    `json:"run_id"`
	Org        string    `json:"org"`
	Timestamp  time.Time `json:"timestamp"`
	Kind       string    `json:"kind"`
	Repository string    `json:"repository"`
	Principal  string    `json:"principal,omitempty"`
	Class      string    `json:"class,omitempty"`
	Level      string    `json:"level,omitempty"`
	Previous   string    `json:"previous,omitempty"`
	Template   string    `json:"template,omitempty"`
	Applied    bool      `json:"applied"`
}

// RunEvent is published on <subject>.run when a run finishes.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Org       string    `json:"org"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"`
	Mutations int       `json:"mutations"`
	Error     string    `json:"error,omitempty"`
}

// Notifier publishes assignctl events. It implements assignment.Journal and
// assignment.RunTracker.
type Notifier struct {
	conn    *nats.Conn
	pub     Publisher
	subject string
	org     string
	now     func() time.Time
}

var (
	_ assignment.Journal    = (*Notifier)(nil)
	_ assignment.RunTracker = (*Notifier)(nil)
)

// Connect dials the NATS server at url.
func Connect(url, subject, org string) (*Notifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("assignctl"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, ErrPublishFailed.WithCause(err).WithContext("url", url)
	}
	n := New(conn, subject, org)
	n.conn = conn

	slog.Info("NATS notifier connected", slog.String("url", url), slog.String("subject", subject))
	return n, nil
}

// New builds a Notifier on an existing publisher.
func New(pub Publisher, subject, org string) *Notifier {
	return &Notifier{pub: pub, subject: subject, org: org, now: time.Now}
}

// Record publishes one mutation.
func (n *Notifier) Record(_ context.Context, runID string, m assignment.Mutation, applied bool) error {
	return n.publish(n.subject+"."+string(m.Kind), MutationEvent{
		RunID:      runID,
		Org:        n.org,
		Timestamp:  n.now(),
		Kind:       string(m.Kind),
		Repository: m.Repository,
		Principal:  m.Principal,
		Class:      string(m.Class),
		Level:      string(m.Level),
		Previous:   m.Previous,
		Template:   m.Template,
		Applied:    applied,
	})
}

// RunStarted is a no-op; only finished runs are announced.
func (n *Notifier) RunStarted(context.Context, string, string, string, bool) error { return nil }

// RunFinished publishes the outcome of a run.
func (n *Notifier) RunFinished(_ context.Context, runID, operation string, mutations int, runErr error) error {
	ev := RunEvent{
		RunID:     runID,
		Org:       n.org,
		Timestamp: n.now(),
		Operation: operation,
		Status:    "success",
		Mutations: mutations,
	}
	switch {
	case runErr == nil:
	case stderrors.Is(runErr, assignment.ErrDeletionNotConfirmed):
		ev.Status = "aborted"
		ev.Error = runErr.Error()
	default:
		ev.Status = "failed"
		ev.Error = runErr.Error()
	}
	return n.publish(n.subject+".run", ev)
}

func (n *Notifier) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return ErrPublishFailed.WithCause(err).WithContext("subject", subject)
	}
	if err := n.pub.Publish(subject, data); err != nil {
		return ErrPublishFailed.WithCause(err).WithContext("subject", subject)
	}
	return nil
}

// Close flushes pending messages and closes the connection, if Connect made one.
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	err := n.conn.FlushTimeout(2 * time.Second)
	n.conn.Close()
	return err
}
