package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assignctl/internal/assignment"
	"git.home.luguber.info/inful/assignctl/internal/config"
	"git.home.luguber.info/inful/assignctl/internal/eventstore"
	"git.home.luguber.info/inful/assignctl/internal/forge"
	"git.home.luguber.info/inful/assignctl/internal/logfields"
	"git.home.luguber.info/inful/assignctl/internal/metrics"
	"git.home.luguber.info/inful/assignctl/internal/notify"
	"git.home.luguber.info/inful/assignctl/internal/version"
)

// Global carries the process streams shared by every subcommand.
type Global struct {
	Out io.Writer
	In  io.Reader
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (YAML or TOML)" env:"ASSIGNCTL_CONFIG" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format" enum:"text,json" default:"text"`
	LogFile   string           `name:"log-file" help:"Also write logs to this file" type:"path"`
	Live      bool             `help:"Apply mutations (overrides dry_run from config)" xor:"mode"`
	DryRun    bool             `name:"dry-run" help:"Only log mutations (overrides dry_run from config)" xor:"mode"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Create   CreateCmd  `cmd:"" help:"Create missing assignment repositories"`
	Sync     SyncCmd    `cmd:"" help:"Reconcile permissions on assignment repositories"`
	Delete   DeleteCmd  `cmd:"" help:"Delete every repository of an assignment"`
	Members  MembersCmd `cmd:"" help:"List the members of a team"`
	Resolve  ResolveCmd `cmd:"" help:"Show which assignment repositories exist and which are missing"`
	Watch    WatchCmd   `cmd:"" help:"Re-run sync periodically until interrupted"`
	History  HistoryCmd `cmd:"" help:"Show recent runs from the journal"`
	Settings ConfigCmd  `cmd:"" name:"config" help:"Print the resolved configuration (token redacted)"`
	Init     InitCmd    `cmd:"" help:"Write a configuration file with defaults"`

	logFile *os.File
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		c.logFile = f
		w = io.MultiWriter(os.Stderr, f)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// Close releases the log file opened by AfterApply.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	err := c.logFile.Close()
	c.logFile = nil
	return err
}

// live applies the --live / --dry-run override on top of the config value.
func (c *CLI) live(cfg *config.Config) bool {
	switch {
	case c.Live:
		return true
	case c.DryRun:
		return false
	default:
		return !cfg.IsDryRun()
	}
}

// runtime is everything a networked command needs, built from one config.
type runtime struct {
	cfg      *config.Config
	service  *assignment.Service
	registry *prometheus.Registry
	closers  []func() error
}

// open loads and validates the configuration and wires the service with its
// optional sinks. Sinks that fail to open are logged and skipped.
func (c *CLI) open() (*runtime, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	return newRuntime(cfg, c.live(cfg), nil)
}

func newRuntime(cfg *config.Config, live bool, mutate func(*assignment.Options)) (*runtime, error) {
	rt := &runtime{cfg: cfg, registry: prometheus.NewRegistry()}
	rec := metrics.NewPrometheusRecorder(rt.registry)

	client, err := forge.NewClient(forge.ClientConfig{
		APIURL:    cfg.APIURL,
		Token:     cfg.Token,
		Timeout:   cfg.HTTPTimeout.Std(),
		UserAgent: version.UserAgent(),
		Recorder:  rec,
	})
	if err != nil {
		return nil, err
	}

	var journals []assignment.Journal
	if path := cfg.Journal.SQLitePath; path != "" {
		store, err := eventstore.NewSQLiteStore(path)
		if err != nil {
			slog.Warn("Journal disabled", slog.String("path", path), logfields.Error(err))
		} else {
			journals = append(journals, eventstore.NewJournal(store))
			rt.closers = append(rt.closers, store.Close)
		}
	}
	if url := cfg.Events.NATSURL; url != "" {
		n, err := notify.Connect(url, cfg.Events.Subject, cfg.Org)
		if err != nil {
			slog.Warn("Event publishing disabled", logfields.URL(url), logfields.Error(err))
		} else {
			journals = append(journals, n)
			rt.closers = append(rt.closers, n.Close)
		}
	}

	opts := assignment.Options{
		Org:  cfg.Org,
		Live: live,
		PrivilegedTeams: assignment.PrivilegedTeams{
			Staff: cfg.Teams.Staff,
			Admin: cfg.Teams.Admin,
		},
		Logger:   slog.Default(),
		Recorder: rec,
		Journals: journals,
		Observer: assignment.ObserverFunc(logProgress),
	}
	if mutate != nil {
		mutate(&opts)
	}
	svc, err := assignment.NewService(client, opts)
	if err != nil {
		_ = rt.close()
		return nil, err
	}
	rt.service = svc

	if !live {
		slog.Info("Dry run: no changes will be made (use --live to apply)")
	}
	return rt, nil
}

// flushMetrics writes the textfile export when configured.
func (rt *runtime) flushMetrics() {
	if err := metrics.WriteTextfile(rt.cfg.Metrics.Textfile, rt.registry); err != nil {
		slog.Warn("Failed to write metrics textfile", slog.String("path", rt.cfg.Metrics.Textfile), logfields.Error(err))
	}
}

func (rt *runtime) close() error {
	rt.flushMetrics()
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	return first
}

func logProgress(p assignment.Progress) {
	slog.LogAttrs(context.Background(), slog.LevelDebug, "Processed repository",
		logfields.Operation(p.Operation),
		slog.String("pass", p.Pass),
		logfields.Repository(p.Repository),
		slog.Int("index", p.Index),
		slog.Int("total", p.Total),
	)
}

func closeRuntime(rt *runtime) {
	if err := rt.close(); err != nil {
		slog.Warn("Failed to close sinks", logfields.Error(err))
	}
}
