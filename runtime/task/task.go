// Package task exposes the batch, flow and phase entry points.
package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/phaser/internal/clock"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/internal/idgen"
	"github.com/viant/phaser/lock"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/runtime/batch"
	"github.com/viant/phaser/runtime/flow"
)

// Source returns batch definitions by id.
type Source interface {
	Batch(ctx context.Context, batchID string) (*model.Batch, error)
}

// Task runs batches, flows and phases of one source with fixed arguments.
type Task struct {
	source      Source
	phases      flow.PhaseRunner
	flows       batch.FlowRunner
	locks       lock.Provider
	history     History
	args        map[string]string
	definitions *Definitions
	newID       func() string
}

// Option configures a Task.
type Option func(t *Task)

// WithSource sets the batch source.
func WithSource(source Source) Option {
	return func(t *Task) {
		t.source = source
	}
}

// WithPhaseRunner sets the phase runner.
func WithPhaseRunner(runner flow.PhaseRunner) Option {
	return func(t *Task) {
		t.phases = runner
	}
}

// WithFlowRunner overrides the flow runner built from the phase runner.
func WithFlowRunner(runner batch.FlowRunner) Option {
	return func(t *Task) {
		t.flows = runner
	}
}

// WithLockProvider sets the execution lock provider.
func WithLockProvider(provider lock.Provider) Option {
	return func(t *Task) {
		t.locks = provider
	}
}

// WithHistory records every flow run in history.
func WithHistory(history History) Option {
	return func(t *Task) {
		t.history = history
	}
}

// WithArguments sets batch arguments.
func WithArguments(args map[string]string) Option {
	return func(t *Task) {
		t.args = args
	}
}

// WithDefinitions sets task definitions.
func WithDefinitions(definitions *Definitions) Option {
	return func(t *Task) {
		t.definitions = definitions
	}
}

// WithIDGenerator sets the flow execution id generator used by ExecuteBatch.
func WithIDGenerator(newID func() string) Option {
	return func(t *Task) {
		t.newID = newID
	}
}

// New creates a task; source and phase runner are required.
func New(options ...Option) (*Task, error) {
	ret := &Task{newID: idgen.New, definitions: &Definitions{}}
	for _, opt := range options {
		opt(ret)
	}
	if ret.source == nil {
		return nil, fmt.Errorf("batch source is required")
	}
	if ret.phases == nil {
		return nil, fmt.Errorf("phase runner is required")
	}
	if ret.flows == nil {
		runner, err := flow.New(flow.WithPhaseRunner(ret.phases))
		if err != nil {
			return nil, err
		}
		ret.flows = runner
	}
	if ret.locks == nil {
		ret.locks = lock.Nop()
	}
	if ret.history != nil {
		ret.flows = &recorder{runner: ret.flows, history: ret.history}
	}
	return ret, nil
}

// ExecuteBatch runs every flow of the batch, each once its blockers
// succeeded. Flows named by skipFlows are treated as completed.
func (t *Task) ExecuteBatch(ctx context.Context, batchID string) (err error) {
	if batchID == "" {
		return fmt.Errorf("%w: batch", model.ErrEmptyID)
	}
	aBatch, err := t.load(ctx, batchID)
	if err != nil {
		return err
	}
	flows, err := t.selectFlows(aBatch)
	if err != nil {
		return err
	}
	options := []batch.Option{batch.WithFlowRunner(t.flows), batch.WithIDGenerator(t.newID)}
	if t.definitions.SerializeFlows {
		options = append(options, batch.WithMaxConcurrency(1))
	}
	scheduler, err := batch.New(options...)
	if err != nil {
		return err
	}

	ctx = ctxlog.With(ctx, "batch", batchID)
	logger := ctxlog.FromContext(ctx)
	started := clock.Now()
	logger.Info("starting batch", "flows", len(flows), "skipped", len(aBatch.Flows)-len(flows))
	defer func() {
		if err != nil {
			logger.Error("batch failed", "elapsed", clock.Since(started), "error", err)
			return
		}
		logger.Info("batch completed", "elapsed", clock.Since(started))
	}()

	l, err := t.locks.New(ctx, batchID)
	if err != nil {
		return err
	}
	defer t.closeLock(ctx, l)
	return scheduler.Execute(ctx, l, batchID, flows, t.args)
}

// ExecuteFlow runs one flow with a caller supplied execution id.
func (t *Task) ExecuteFlow(ctx context.Context, batchID, flowID, executionID string) error {
	if err := requireIDs(batchID, flowID, executionID); err != nil {
		return err
	}
	aFlow, err := t.flow(ctx, batchID, flowID)
	if err != nil {
		return err
	}
	return t.locked(ctx, batchID, flowID, executionID, func(ctx context.Context) error {
		return t.flows.Execute(ctx, batchID, aFlow, executionID, t.args)
	})
}

// ExecutePhase runs a single phase of one flow under the flow lock.
func (t *Task) ExecutePhase(ctx context.Context, batchID, flowID, executionID string, phase model.Phase) error {
	if err := requireIDs(batchID, flowID, executionID); err != nil {
		return err
	}
	if !phase.Valid() {
		return fmt.Errorf("%w: %d", model.ErrUnknownPhase, int(phase))
	}
	aFlow, err := t.flow(ctx, batchID, flowID)
	if err != nil {
		return err
	}
	ectx, err := model.NewContext(batchID, flowID, executionID, phase, t.args)
	if err != nil {
		return err
	}
	ctx = ctxlog.With(ctx, "batch", batchID, "flow", flowID, "execution", executionID)
	return t.locked(ctx, batchID, flowID, executionID, func(ctx context.Context) error {
		return t.phases.Execute(ctx, ectx, aFlow.PhaseExecutions(phase))
	})
}

// locked runs fn between BeginFlow and EndFlow of a lock instance opened
// for batchID.
func (t *Task) locked(ctx context.Context, batchID, flowID, executionID string, fn func(ctx context.Context) error) error {
	l, err := t.locks.New(ctx, batchID)
	if err != nil {
		return err
	}
	defer t.closeLock(ctx, l)
	if err = l.BeginFlow(ctx, flowID, executionID); err != nil {
		return err
	}
	err = fn(ctx)
	if endErr := l.EndFlow(context.WithoutCancel(ctx), flowID, executionID); endErr != nil {
		if err == nil {
			return endErr
		}
		ctxlog.FromContext(ctx).Warn("failed to end flow", "batch", batchID, "flow", flowID, "execution", executionID, "error", endErr)
	}
	return err
}

func (t *Task) load(ctx context.Context, batchID string) (*model.Batch, error) {
	aBatch, err := t.source.Batch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	if err = aBatch.Err(); err != nil {
		return nil, err
	}
	return aBatch, nil
}

func (t *Task) flow(ctx context.Context, batchID, flowID string) (*model.Flow, error) {
	aBatch, err := t.load(ctx, batchID)
	if err != nil {
		return nil, err
	}
	ret := aBatch.Flow(flowID)
	if ret == nil {
		return nil, fmt.Errorf("%w: %s in batch %s", ErrFlowNotFound, flowID, batchID)
	}
	return ret, nil
}

func (t *Task) selectFlows(aBatch *model.Batch) ([]*model.Flow, error) {
	skipped := t.definitions.skipped()
	for flowID := range skipped {
		if aBatch.Flow(flowID) == nil {
			return nil, fmt.Errorf("%w: %s=%s", ErrUnknownFlow, KeySkipFlows, flowID)
		}
	}
	ret := make([]*model.Flow, 0, len(aBatch.Flows))
	for _, aFlow := range aBatch.Flows {
		if !skipped[aFlow.ID] {
			ret = append(ret, aFlow)
		}
	}
	return ret, nil
}

func (t *Task) closeLock(ctx context.Context, l lock.Lock) {
	if err := l.Close(context.WithoutCancel(ctx)); err != nil {
		ctxlog.FromContext(ctx).Warn("failed to close execution lock", "error", err)
	}
}

func requireIDs(batchID, flowID, executionID string) error {
	var errs []error
	if batchID == "" {
		errs = append(errs, fmt.Errorf("%w: batch", model.ErrEmptyID))
	}
	if flowID == "" {
		errs = append(errs, fmt.Errorf("%w: flow", model.ErrEmptyID))
	}
	if executionID == "" {
		errs = append(errs, fmt.Errorf("%w: execution", model.ErrEmptyID))
	}
	return errors.Join(errs...)
}
