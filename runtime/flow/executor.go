// Package flow runs the phase sequence of one flow execution.
package flow

import (
	"context"
	"fmt"

	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
)

// PhaseRunner runs the executions of a single phase.
type PhaseRunner interface {
	Execute(ctx context.Context, ectx *model.Context, executions []*model.Execution) error
}

// Executor drives a flow through setup, the main phases, finalize and cleanup.
type Executor struct {
	phases PhaseRunner
}

// Option configures an Executor.
type Option func(e *Executor)

// WithPhaseRunner sets the phase runner.
func WithPhaseRunner(runner PhaseRunner) Option {
	return func(e *Executor) {
		e.phases = runner
	}
}

// New creates a flow executor; the phase runner is required.
func New(options ...Option) (*Executor, error) {
	ret := &Executor{}
	for _, opt := range options {
		opt(ret)
	}
	if ret.phases == nil {
		return nil, fmt.Errorf("phase runner is required")
	}
	return ret, nil
}

// Execute runs flow. A setup failure returns at once. Otherwise finalize and
// cleanup always run, detached from ctx cancellation; a finalize failure is
// returned only when the main phases succeeded and cleanup failures are
// logged.
func (e *Executor) Execute(ctx context.Context, batchID string, flow *model.Flow, executionID string, args map[string]string) error {
	if flow == nil {
		return fmt.Errorf("%w: flow", model.ErrEmptyID)
	}
	base, err := model.NewContext(batchID, flow.ID, executionID, model.PhaseSetup, args)
	if err != nil {
		return err
	}
	ctx = ctxlog.With(ctx, "batch", batchID, "flow", flow.ID, "execution", executionID)
	logger := ctxlog.FromContext(ctx)
	run := func(ctx context.Context, phase model.Phase) error {
		return e.phases.Execute(ctx, base.WithPhase(phase), flow.PhaseExecutions(phase))
	}

	logger.Info("starting flow")
	if err = run(ctx, model.PhaseSetup); err != nil {
		logger.Error("flow setup failed", "error", err)
		return err
	}
	var failure error
	for _, phase := range model.MainPhases() {
		if failure = ctx.Err(); failure != nil {
			break
		}
		if failure = run(ctx, phase); failure != nil {
			logger.Error("flow phase failed", "phase", phase.Symbol(), "error", failure)
			break
		}
	}

	detached := context.WithoutCancel(ctx)
	if err = run(detached, model.PhaseFinalize); err != nil {
		if failure == nil {
			failure = err
		} else {
			logger.Warn("finalize failed after earlier failure", "error", err)
		}
	}
	if err = run(detached, model.PhaseCleanup); err != nil {
		logger.Warn("cleanup failed", "error", err)
	}
	if failure != nil {
		return failure
	}
	logger.Info("completed flow")
	return nil
}
