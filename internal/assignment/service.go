package assignment

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/assignctl/internal/forge"
	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
	"git.home.luguber.info/inful/assignctl/internal/logfields"
	"git.home.luguber.info/inful/assignctl/internal/metrics"
)

// Operation names used in logs, metrics and journal entries.
const (
	OpTeamMembers = "team-members"
	OpResolve     = "resolve"
	OpCreate      = "create"
	OpSync        = "sync"
	OpDelete      = "delete"
)

// PrivilegedTeams names the two teams reconciled as their own principal classes.
type PrivilegedTeams struct {
	Staff string
	Admin string
}

// DefaultPrivilegedTeams returns the conventional slugs.
func DefaultPrivilegedTeams() PrivilegedTeams {
	return PrivilegedTeams{Staff: "staff", Admin: "admin"}
}

func (p PrivilegedTeams) contains(slug string) bool {
	return strings.EqualFold(slug, p.Staff) || strings.EqualFold(slug, p.Admin)
}

// Options configures a Service.
type Options struct {
	Org string
	// Live enables writes. The zero value is a dry run.
	Live            bool
	PrivilegedTeams PrivilegedTeams
	Logger          *slog.Logger
	Recorder        metrics.Recorder
	Journals        []Journal
	Observer        Observer
	// NewRunID overrides run id generation; used by tests.
	NewRunID func() string
}

// Service runs the provisioning and reconciliation operations against one
// organization. Each public method is one run with its own Gate.
type Service struct {
	remote     Remote
	endpoints  forge.Endpoints
	live       bool
	privileged PrivilegedTeams
	logger     *slog.Logger
	recorder   metrics.Recorder
	journals   []Journal
	observer   Observer
	newRunID   func() string
}

// NewService validates opts and binds them to remote.
func NewService(remote Remote, opts Options) (*Service, error) {
	if strings.TrimSpace(opts.Org) == "" {
		return nil, ErrConfiguration.WithContext("field", "org")
	}
	if remote == nil {
		return nil, errors.InternalError("assignment service requires a remote").Build()
	}

	s := &Service{
		remote:     remote,
		endpoints:  forge.NewEndpoints(opts.Org),
		live:       opts.Live,
		privileged: opts.PrivilegedTeams,
		logger:     opts.Logger,
		recorder:   opts.Recorder,
		journals:   opts.Journals,
		observer:   opts.Observer,
		newRunID:   opts.NewRunID,
	}
	if s.privileged.Staff == "" {
		s.privileged.Staff = DefaultPrivilegedTeams().Staff
	}
	if s.privileged.Admin == "" {
		s.privileged.Admin = DefaultPrivilegedTeams().Admin
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if s.newRunID == nil {
		s.newRunID = uuid.NewString
	}
	return s, nil
}

// Org returns the organization the service is bound to.
func (s *Service) Org() string { return s.endpoints.Org() }

// Live reports whether runs of this service perform writes.
func (s *Service) Live() bool { return s.live }

// run carries the per-invocation state of one top-level operation.
type run struct {
	*Service
	id         string
	op         string
	assignment string
	gate       *Gate
	log        *slog.Logger
}

func (s *Service) begin(ctx context.Context, op, assignment string) *run {
	id := s.newRunID()
	log := s.logger.With(logfields.RunID(id), logfields.Operation(op))
	if assignment != "" {
		log = log.With(logfields.Assignment(assignment))
	}
	r := &run{
		Service:    s,
		id:         id,
		op:         op,
		assignment: assignment,
		gate:       newGate(s.live, id, log, s.recorder, s.journals),
		log:        log,
	}
	for _, j := range s.journals {
		if t, ok := j.(RunTracker); ok {
			if err := t.RunStarted(ctx, id, op, assignment, s.live); err != nil {
				log.Warn("Journal write failed", logfields.Error(err))
			}
		}
	}
	return r
}

// finish records the outcome of r.
func (r *run) finish(ctx context.Context, start time.Time, err error) {
	for _, j := range r.journals {
		if t, ok := j.(RunTracker); ok {
			if jerr := t.RunFinished(ctx, r.id, r.op, len(r.gate.planned), err); jerr != nil {
				r.log.Warn("Journal write failed", logfields.Error(jerr))
			}
		}
	}

	d := time.Since(start)
	r.recorder.ObserveOperationDuration(r.op, d)
	ms := float64(d.Microseconds()) / 1000
	switch {
	case err == nil:
		r.recorder.IncOperationResult(r.op, metrics.ResultSuccess)
		r.log.Info("Operation complete",
			logfields.Count(len(r.gate.planned)), logfields.DryRun(!r.live), logfields.DurationMS(ms))
	case stderrors.Is(err, ErrDeletionNotConfirmed):
		r.recorder.IncOperationResult(r.op, metrics.ResultAborted)
		r.log.Info("Operation aborted", logfields.Error(err))
	default:
		r.recorder.IncOperationResult(r.op, metrics.ResultFailed)
		r.log.Error("Operation failed", logfields.Error(err), logfields.DurationMS(ms))
	}
}

func (r *run) progress(pass, repo string, index, total int) {
	r.observer.Observe(Progress{Operation: r.op, Pass: pass, Repository: repo, Index: index, Total: total})
}

// TeamMembers returns the logins of the User-type members of team.
func (s *Service) TeamMembers(ctx context.Context, team string) (members []string, err error) {
	r := s.begin(ctx, OpTeamMembers, "")
	defer func(start time.Time) { r.finish(ctx, start, err) }(time.Now())

	if strings.TrimSpace(team) == "" {
		return nil, invalidInput("team slug is empty")
	}
	coll, err := fetchAll(ctx, s.remote, s.recorder, fetchSpec[forge.Member]{
		start: s.endpoints.TeamMembers(team),
		key:   func(m forge.Member) string { return m.Login },
		keep:  func(m forge.Member) bool { return m.Type == "User" },
	})
	if err != nil {
		return nil, err
	}
	r.log.Debug("Fetched team members", slog.String("team", team), logfields.Count(coll.Len()))
	return coll.Keys(), nil
}

// Resolve computes the desired and observed repository sets for assignment
// without changing anything.
func (s *Service) Resolve(ctx context.Context, assignment string, users []string) (res *Resolution, err error) {
	r := s.begin(ctx, OpResolve, assignment)
	defer func(start time.Time) { r.finish(ctx, start, err) }(time.Now())

	res, err = s.resolve(ctx, assignment, users)
	if err != nil {
		return nil, err
	}
	return res, nil
}
