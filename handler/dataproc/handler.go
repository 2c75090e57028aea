// Package dataproc runs data-processing executions through a launcher
// script executed by a command handler.
package dataproc

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/handler/command"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

const (
	// DefaultLauncher is the launcher path relative to Home.
	DefaultLauncher = "libexec/launch.sh"
	// DefaultCleanupClass is the class run by Cleanup.
	DefaultCleanupClass = "cleanup"
	// TrackingIDProperty carries the unique job tracking id.
	TrackingIDProperty = "phaser.tracking.id"
)

// Config defines the launcher and the session it runs in.
type Config struct {
	command.Config `yaml:",inline"`
	Home           string            `json:"home,omitempty" yaml:"home,omitempty"`
	Launcher       string            `json:"launcher,omitempty" yaml:"launcher,omitempty"`
	Properties     map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	CleanupClass   string            `json:"cleanupClass,omitempty" yaml:"cleanupClass,omitempty"`
	CleanupEnabled *bool             `json:"cleanupEnabled,omitempty" yaml:"cleanupEnabled,omitempty"`
}

// Init applies defaults.
func (c *Config) Init() {
	if c.Launcher == "" {
		c.Launcher = DefaultLauncher
	}
	if c.CleanupClass == "" {
		c.CleanupClass = DefaultCleanupClass
	}
	if c.CleanupEnabled == nil {
		enabled := true
		c.CleanupEnabled = &enabled
	}
}

// Handler launches data-processing jobs.
type Handler struct {
	id     string
	config *Config
	runner *command.Handler
}

// New creates a handler; options configure the underlying command handler.
func New(id string, config *Config, options ...command.Option) *Handler {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	commandConfig := config.Config
	commandConfig.Setup = nil
	commandConfig.Cleanup = nil
	return &Handler{id: id, config: config, runner: command.New(id, &commandConfig, options...)}
}

func (h *Handler) ID() string { return h.id }

// Setup has nothing to prepare.
func (h *Handler) Setup(context.Context, monitor.Monitor, *model.Context) error {
	return nil
}

func (h *Handler) Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context, execution *model.Execution) error {
	args := h.Command(ectx, execution.ID, execution.ClassName, execution.Properties)
	return h.runner.Run(ctx, mon, ectx, execution.ID, args, execution.Env)
}

// Cleanup runs the cleanup class when enabled.
func (h *Handler) Cleanup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	logger := ctxlog.FromContext(ctx)
	if !*h.config.CleanupEnabled {
		logger.Info("cleanup disabled", "handler", h.id, "batch", ectx.BatchID(), "flow", ectx.FlowID(), "execution", ectx.ExecutionID())
		return nil
	}
	logger.Info("running cleanup", "handler", h.id, "batch", ectx.BatchID(), "flow", ectx.FlowID(), "execution", ectx.ExecutionID())
	label := h.id + ":cleanup"
	return h.runner.Run(ctx, mon, ectx, label, h.Command(ectx, ectx.Phase().Symbol(), h.config.CleanupClass, nil), nil)
}

// Close releases the launcher sessions.
func (h *Handler) Close(ctx context.Context) error {
	return h.runner.Close(ctx)
}

// Command builds the launcher argv:
// launcher class batch flow execution arguments -D key=value ...
func (h *Handler) Command(ectx *model.Context, jobID, className string, properties map[string]string) []string {
	launcher := h.config.Launcher
	if h.config.Home != "" && !path.IsAbs(launcher) {
		launcher = path.Join(h.config.Home, launcher)
	}
	ret := []string{launcher, className, ectx.BatchID(), ectx.FlowID(), ectx.ExecutionID(), ectx.ArgumentsString()}
	props := map[string]string{}
	for k, v := range h.config.Properties {
		props[k] = v
	}
	for k, v := range properties {
		props[k] = v
	}
	props[TrackingIDProperty] = TrackingID(ectx, jobID)
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ret = append(ret, "-D", key+"="+props[key])
	}
	return ret
}

// TrackingID identifies a job run across batch, flow, execution and phase.
func TrackingID(ectx *model.Context, jobID string) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s", ectx.BatchID(), ectx.FlowID(), ectx.ExecutionID(), ectx.Phase().Symbol(), jobID)
}

// Constructor builds a data-processing handler from configuration.
func Constructor(_ context.Context, _ *handler.Factory, config *handler.Config) (handler.Handler, error) {
	cfg := &Config{}
	if err := config.Decode(cfg); err != nil {
		return nil, err
	}
	return New(config.ID, cfg), nil
}
