// Package phase runs the jobs of a single flow phase.
package phase

import (
	"context"
	"fmt"

	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/job"
	"github.com/viant/phaser/job/basic"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

// PolicyOf returns the job policy used for phase.
func PolicyOf(phase model.Phase) job.Policy {
	switch phase {
	case model.PhaseCleanup, model.PhaseFinalize:
		return job.BestEffort
	}
	return job.Strict
}

// Executor binds phase jobs and hands them to the job scheduler.
type Executor struct {
	registry  *handler.Registry
	scheduler job.Scheduler
	monitors  monitor.Provider
}

// Option configures an Executor.
type Option func(e *Executor)

// WithRegistry sets the handler registry.
func WithRegistry(registry *handler.Registry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithScheduler sets the job scheduler.
func WithScheduler(scheduler job.Scheduler) Option {
	return func(e *Executor) {
		e.scheduler = scheduler
	}
}

// WithMonitor sets the monitor provider.
func WithMonitor(provider monitor.Provider) Option {
	return func(e *Executor) {
		e.monitors = provider
	}
}

// New creates an executor; the registry is required, the scheduler defaults
// to the sequential one and monitors to monitor.NopProvider.
func New(options ...Option) (*Executor, error) {
	ret := &Executor{}
	for _, opt := range options {
		opt(ret)
	}
	if ret.registry == nil {
		return nil, fmt.Errorf("handler registry is required")
	}
	if ret.scheduler == nil {
		ret.scheduler = basic.New()
	}
	if ret.monitors == nil {
		ret.monitors = monitor.NopProvider()
	}
	return ret, nil
}

// Registry returns the handler registry.
func (e *Executor) Registry() *handler.Registry { return e.registry }

// Jobs builds the jobs of ectx phase. Setup and cleanup run one lifecycle
// job per handler and ignore executions.
func (e *Executor) Jobs(ectx *model.Context, executions []*model.Execution) ([]job.Job, error) {
	if phase := ectx.Phase(); phase.IsLifecycle() {
		newJob := job.Setup
		if phase == model.PhaseCleanup {
			newJob = job.Cleanup
		}
		return e.lifecycle(newJob), nil
	}
	return job.BindAll(e.registry, ectx, executions)
}

// Execute runs the phase of ectx.
func (e *Executor) Execute(ctx context.Context, ectx *model.Context, executions []*model.Execution) error {
	ctx = ctxlog.With(ctx, "batch", ectx.BatchID(), "flow", ectx.FlowID(), "execution", ectx.ExecutionID(), "phase", ectx.Phase().Symbol())
	logger := ctxlog.FromContext(ctx)
	jobs, err := e.Jobs(ectx, executions)
	if err != nil {
		return fmt.Errorf("failed to bind %s jobs: %w", ectx.Phase(), err)
	}
	mon, err := e.monitors.New(ctx, ectx)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer func() {
		if closeErr := mon.Close(); closeErr != nil {
			logger.Warn("failed to close monitor", "error", closeErr)
		}
	}()
	policy := PolicyOf(ectx.Phase())
	logger.Debug("starting phase", "jobs", len(jobs), "policy", policy.String())
	if err = e.scheduler.Execute(ctx, mon, ectx, jobs, policy); err != nil {
		return err
	}
	logger.Debug("completed phase")
	return nil
}

func (e *Executor) lifecycle(newJob func(handler.Handler) job.Job) []job.Job {
	handlers := e.registry.Handlers()
	ret := make([]job.Job, 0, len(handlers))
	for _, h := range handlers {
		ret = append(ret, newJob(h))
	}
	return ret
}
