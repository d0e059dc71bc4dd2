package assignment

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assignctl/internal/forge"
	"git.home.luguber.info/inful/assignctl/internal/testforge"
)

const testOrg = "course"

// captureHandler records every log record; attributes added with With are dropped.
type captureHandler struct {
	mu      *sync.Mutex
	records *[]slog.Record
}

func newCapture() *captureHandler {
	return &captureHandler{mu: &sync.Mutex{}, records: &[]slog.Record{}}
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

// messages returns the messages at level with the given prefix.
func (h *captureHandler) messages(level slog.Level, prefix string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range *h.records {
		if r.Level == level && strings.HasPrefix(r.Message, prefix) {
			out = append(out, r.Message)
		}
	}
	return out
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []journalEntry
	err     error
}

type journalEntry struct {
	runID   string
	m       Mutation
	applied bool
}

func (j *recordingJournal) Record(_ context.Context, runID string, m Mutation, applied bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, journalEntry{runID: runID, m: m, applied: applied})
	return j.err
}

type fixture struct {
	forge   *testforge.TestForge
	service *Service
	logs    *captureHandler
}

// newFixture starts an empty fake organization and a service bound to it.
func newFixture(t *testing.T, live bool, mutate ...func(*Options)) *fixture {
	t.Helper()
	tf := testforge.NewTestForge(testOrg)
	t.Cleanup(tf.Close)
	return attach(t, tf, live, mutate...)
}

// attach binds a new service (with its own log capture) to tf.
func attach(t *testing.T, tf *testforge.TestForge, live bool, mutate ...func(*Options)) *fixture {
	t.Helper()
	client, err := forge.NewClient(forge.ClientConfig{APIURL: tf.APIURL(), Token: "test-token"})
	require.NoError(t, err)

	logs := newCapture()
	opts := Options{
		Org:      testOrg,
		Live:     live,
		Logger:   slog.New(logs),
		NewRunID: func() string { return "test-run" },
	}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := NewService(client, opts)
	require.NoError(t, err)
	return &fixture{forge: tf, service: s, logs: logs}
}

func kindsOf(ms []Mutation) []MutationKind {
	out := make([]MutationKind, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Kind)
	}
	return out
}

func testforgeMember(login, typ string) testforge.Member {
	return testforge.Member{Login: login, Type: typ}
}

const slogInfo = slog.LevelInfo

func forgeTeam(slug, level string) forge.Team {
	return forge.Team{Slug: slug, Permission: level}
}

const slogWarn = slog.LevelWarn
