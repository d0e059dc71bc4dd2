package config

import (
	"time"

	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
)

// DefaultAPIURL is the GitHub Enterprise instance assignctl targets when
// neither the config file nor GHE_APIURL say otherwise.
const DefaultAPIURL = "https://github.students.cs.ubc.ca/api/v3"

const (
	defaultHTTPTimeout   = 30 * time.Second
	defaultWatchInterval = 15 * time.Minute
	defaultEventsSubject = "assignctl.mutations"
)

// ErrConfiguration marks a missing or malformed setting. No network call is
// made once it is returned.
var ErrConfiguration = errors.ConfigError("invalid configuration").Build()

// Config is the resolved runtime configuration. It is treated as immutable
// once Load returns.
type Config struct {
	APIURL string `yaml:"api_url" toml:"api_url"`
	Org    string `yaml:"org" toml:"org"`
	Token  string `yaml:"token" toml:"token"`
	// DryRun defaults to true; only an explicit false enables writes.
	DryRun      *bool    `yaml:"dry_run" toml:"dry_run"`
	HTTPTimeout Duration `yaml:"http_timeout" toml:"http_timeout"`

	Teams   TeamsConfig   `yaml:"teams" toml:"teams"`
	Journal JournalConfig `yaml:"journal" toml:"journal"`
	Events  EventsConfig  `yaml:"events" toml:"events"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
}

// TeamsConfig names the privileged teams.
type TeamsConfig struct {
	Staff string `yaml:"staff" toml:"staff"`
	Admin string `yaml:"admin" toml:"admin"`
}

// JournalConfig enables the SQLite mutation journal when SQLitePath is set.
type JournalConfig struct {
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
}

// EventsConfig enables NATS publication of mutations when NATSURL is set.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url" toml:"nats_url"`
	Subject string `yaml:"subject" toml:"subject"`
}

// MetricsConfig enables the Prometheus textfile export when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" toml:"textfile"`
}

// WatchConfig drives the periodic sync of `assignctl watch`.
type WatchConfig struct {
	Interval Duration `yaml:"interval" toml:"interval"`
}

// IsDryRun reports whether writes are disabled.
func (c *Config) IsDryRun() bool {
	return c.DryRun == nil || *c.DryRun
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.DryRun == nil {
		dry := true
		c.DryRun = &dry
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = Duration(defaultHTTPTimeout)
	}
	if c.Teams.Staff == "" {
		c.Teams.Staff = "staff"
	}
	if c.Teams.Admin == "" {
		c.Teams.Admin = "admin"
	}
	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		c.Events.Subject = defaultEventsSubject
	}
	if c.Watch.Interval == 0 {
		c.Watch.Interval = Duration(defaultWatchInterval)
	}
}

// Redacted returns a copy safe to print: the token is masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Token != "" {
		out.Token = "********"
	}
	if c.DryRun != nil {
		dry := *c.DryRun
		out.DryRun = &dry
	}
	return &out
}
