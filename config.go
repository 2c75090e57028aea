package phaser

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/job/parallel"
	"github.com/viant/phaser/lock"
	"github.com/viant/phaser/service/messaging"
	"gopkg.in/yaml.v3"
)

// Scheduler kinds.
const (
	SchedulerBasic    = "basic"
	SchedulerParallel = "parallel"
)

// Lock kinds.
const (
	LockNop    = "nop"
	LockMemory = "memory"
	LockFS     = "fs"
)

// History kinds.
const (
	HistoryNone   = "none"
	HistoryMemory = "memory"
	HistoryFS     = "fs"
)

// Config is a serialisable representation of the service configuration. The
// zero value of a nested section falls back to its default.
type Config struct {
	Handlers  HandlersConfig  `json:"handlers" yaml:"handlers"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Lock      LockConfig      `json:"lock" yaml:"lock"`
	Monitor   MonitorConfig   `json:"monitor" yaml:"monitor"`
	History   HistoryConfig   `json:"history" yaml:"history"`
	Script    ScriptConfig    `json:"script" yaml:"script"`
}

// HandlersConfig declares the data handler and command handlers keyed by
// profile; the "*" profile is the wildcard.
type HandlersConfig struct {
	Data     *handler.Config            `json:"data,omitempty" yaml:"data,omitempty"`
	Commands map[string]*handler.Config `json:"commands,omitempty" yaml:"commands,omitempty"`
}

// SchedulerConfig selects the job scheduler used within a phase.
type SchedulerConfig struct {
	Kind  string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Slots map[string]int `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// LockConfig selects the execution lock provider.
type LockConfig struct {
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

// MonitorConfig enables phase monitors.
type MonitorConfig struct {
	Logging   bool             `json:"logging" yaml:"logging"`
	Progress  bool             `json:"progress" yaml:"progress"`
	Trace     bool             `json:"trace" yaml:"trace"`
	TraceFile string           `json:"traceFile,omitempty" yaml:"traceFile,omitempty"`
	Events    messaging.Vendor `json:"events,omitempty" yaml:"events,omitempty"`
	EventsURL string           `json:"eventsURL,omitempty" yaml:"eventsURL,omitempty"`
}

// HistoryConfig selects where flow run records are kept.
type HistoryConfig struct {
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// ScriptConfig locates batch definitions.
type ScriptConfig struct {
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

// DefaultConfig runs commands locally through a wildcard command handler,
// executes phase jobs sequentially and logs phase events.
func DefaultConfig() *Config {
	return &Config{
		Handlers: HandlersConfig{
			Data:     &handler.Config{ID: "data", Kind: "data"},
			Commands: map[string]*handler.Config{handler.Wildcard: {ID: "command", Kind: "command"}},
		},
		Scheduler: SchedulerConfig{Kind: SchedulerBasic},
		Lock:      LockConfig{Kind: LockNop, Scope: string(lock.ScopeWorld)},
		Monitor:   MonitorConfig{Logging: true},
		History:   HistoryConfig{Kind: HistoryNone},
		Script:    ScriptConfig{BaseURL: "."},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Handlers.Data == nil {
		errs = append(errs, fmt.Errorf("handlers.data is required"))
	}
	for profile, config := range c.Handlers.Commands {
		if config == nil || config.Kind == "" {
			errs = append(errs, fmt.Errorf("handlers.commands.%s: kind is required", profile))
		}
	}
	switch c.Scheduler.Kind {
	case "", SchedulerBasic:
	case SchedulerParallel:
		if err := c.slots().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("scheduler.kind: unsupported %q", c.Scheduler.Kind))
	}
	switch c.Lock.Kind {
	case "", LockNop, LockMemory:
	case LockFS:
		if c.Lock.URL == "" {
			errs = append(errs, fmt.Errorf("lock.url is required for %s lock", LockFS))
		}
	default:
		errs = append(errs, fmt.Errorf("lock.kind: unsupported %q", c.Lock.Kind))
	}
	if _, err := lock.ParseScope(c.Lock.Scope); err != nil {
		errs = append(errs, fmt.Errorf("lock.scope: %w", err))
	}
	switch c.History.Kind {
	case "", HistoryNone, HistoryMemory:
	case HistoryFS:
		if c.History.URL == "" {
			errs = append(errs, fmt.Errorf("history.url is required for %s history", HistoryFS))
		}
	default:
		errs = append(errs, fmt.Errorf("history.kind: unsupported %q", c.History.Kind))
	}
	if c.Monitor.Events != "" {
		if _, err := messaging.ParseVendor(string(c.Monitor.Events)); err != nil {
			errs = append(errs, fmt.Errorf("monitor.events: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) slots() *parallel.Config {
	if len(c.Scheduler.Slots) == 0 {
		return parallel.DefaultConfig()
	}
	return &parallel.Config{Slots: c.Scheduler.Slots}
}

// Init fills empty sections with their defaults.
func (c *Config) Init() {
	defaults := DefaultConfig()
	if c.Handlers.Data == nil && len(c.Handlers.Commands) == 0 {
		c.Handlers = defaults.Handlers
	}
	if c.Scheduler.Kind == "" {
		c.Scheduler.Kind = defaults.Scheduler.Kind
	}
	if c.Lock.Kind == "" {
		c.Lock.Kind = defaults.Lock.Kind
	}
	if c.Lock.Scope == "" {
		c.Lock.Scope = defaults.Lock.Scope
	}
	if c.History.Kind == "" {
		c.History.Kind = defaults.History.Kind
	}
	if c.Monitor == (MonitorConfig{}) {
		c.Monitor = defaults.Monitor
	}
	if c.Script.BaseURL == "" {
		c.Script.BaseURL = defaults.Script.BaseURL
	}
}

// LoadConfig reads a YAML configuration at URL; empty sections take their
// defaults.
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", URL, err)
	}
	ret := &Config{}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	ret.Init()
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return ret, nil
}
