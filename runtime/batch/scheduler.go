// Package batch runs the flows of a batch concurrently, starting each flow
// once all of its blockers completed.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/internal/idgen"
	"github.com/viant/phaser/lock"
	"github.com/viant/phaser/model"
)

// FlowRunner runs one flow execution.
type FlowRunner interface {
	Execute(ctx context.Context, batchID string, flow *model.Flow, executionID string, args map[string]string) error
}

// Scheduler submits flows as their blockers complete.
type Scheduler struct {
	runner         FlowRunner
	newID          func() string
	maxConcurrency int
}

// Option configures a Scheduler.
type Option func(s *Scheduler)

// WithFlowRunner sets the flow runner.
func WithFlowRunner(runner FlowRunner) Option {
	return func(s *Scheduler) {
		s.runner = runner
	}
}

// WithIDGenerator sets the execution id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Scheduler) {
		s.newID = newID
	}
}

// WithMaxConcurrency limits concurrently running flows; 0 means unbounded.
func WithMaxConcurrency(limit int) Option {
	return func(s *Scheduler) {
		s.maxConcurrency = limit
	}
}

// New creates a scheduler; the flow runner is required.
func New(options ...Option) (*Scheduler, error) {
	ret := &Scheduler{newID: idgen.New}
	for _, opt := range options {
		opt(ret)
	}
	if ret.runner == nil {
		return nil, fmt.Errorf("flow runner is required")
	}
	if ret.maxConcurrency < 0 {
		return nil, fmt.Errorf("invalid max concurrency: %d", ret.maxConcurrency)
	}
	return ret, nil
}

type node struct {
	flow     *model.Flow
	blockers []int
}

type task struct {
	executionID string
	cancel      context.CancelFunc
}

type completion struct {
	index  int
	result Result
}

// run is the state of one Execute call, owned by the calling goroutine.
type run struct {
	batchID  string
	args     map[string]string
	lock     lock.Lock
	nodes    []node
	pending  []int
	blocking bitset
	running  map[int]*task
	done     chan completion
}

// Execute runs flows to completion. Blockers naming flows outside flows are
// treated as completed. A nil lock means lock.Nop.
func (s *Scheduler) Execute(ctx context.Context, l lock.Lock, batchID string, flows []*model.Flow, args map[string]string) error {
	r, err := newRun(batchID, flows, args)
	if err != nil {
		return err
	}
	if l == nil {
		if l, err = lock.Nop().New(ctx, batchID); err != nil {
			return err
		}
		defer l.Close(context.WithoutCancel(ctx))
	}
	r.lock = l
	ctx = ctxlog.With(ctx, "batch", batchID)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	err = s.loop(runCtx, r)
	if len(r.running) > 0 {
		cancelled := s.teardown(ctx, r)
		var flowErr *FlowError
		if errors.As(err, &flowErr) {
			flowErr.Cancelled = cancelled
		}
	}
	return err
}

func newRun(batchID string, flows []*model.Flow, args map[string]string) (*run, error) {
	index := make(map[string]int, len(flows))
	for i, flow := range flows {
		if _, ok := index[flow.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFlow, flow.ID)
		}
		index[flow.ID] = i
	}
	ret := &run{
		batchID:  batchID,
		args:     args,
		nodes:    make([]node, len(flows)),
		pending:  make([]int, 0, len(flows)),
		blocking: newBitset(len(flows)),
		running:  map[int]*task{},
		done:     make(chan completion, len(flows)),
	}
	for i, flow := range flows {
		ret.nodes[i].flow = flow
		for _, blocker := range flow.BlockerIDs {
			if b, ok := index[blocker]; ok {
				ret.nodes[i].blockers = append(ret.nodes[i].blockers, b)
			}
		}
		ret.pending = append(ret.pending, i)
		ret.blocking.set(i)
	}
	return ret, nil
}

func (s *Scheduler) loop(ctx context.Context, r *run) error {
	for len(r.pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.submit(ctx, r) > 0 {
			continue
		}
		if len(r.running) == 0 {
			return &DeadlockError{BatchID: r.batchID, FlowIDs: r.pendingIDs()}
		}
		if err := s.await(ctx, r); err != nil {
			return err
		}
	}
	for len(r.running) > 0 {
		if err := s.await(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// submit starts every pending flow whose blockers all completed.
func (s *Scheduler) submit(ctx context.Context, r *run) int {
	submitted := 0
	remaining := r.pending[:0]
	for _, i := range r.pending {
		if !r.submittable(i) || (s.maxConcurrency > 0 && len(r.running) >= s.maxConcurrency) {
			remaining = append(remaining, i)
			continue
		}
		s.start(ctx, r, i)
		submitted++
	}
	r.pending = remaining
	return submitted
}

func (s *Scheduler) start(ctx context.Context, r *run, i int) {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{executionID: s.newID(), cancel: cancel}
	r.running[i] = t
	flow := r.nodes[i].flow
	ctxlog.FromContext(ctx).Info("submitting flow", "flow", flow.ID, "execution", t.executionID)
	go func() {
		defer cancel()
		r.done <- completion{index: i, result: s.runTask(taskCtx, r, flow, t.executionID)}
	}()
}

func (s *Scheduler) runTask(ctx context.Context, r *run, flow *model.Flow, executionID string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Outcome: Cancelled, Err: err}
	}
	if err := r.lock.BeginFlow(ctx, flow.ID, executionID); err != nil {
		return resultOf(ctx, err)
	}
	result := resultOf(ctx, s.runner.Execute(ctx, r.batchID, flow, executionID, r.args))
	if err := r.lock.EndFlow(context.WithoutCancel(ctx), flow.ID, executionID); err != nil {
		if result.Outcome == Succeeded {
			return Result{Outcome: Failed, Err: err}
		}
		ctxlog.FromContext(ctx).Warn("failed to end flow", "flow", flow.ID, "execution", executionID, "error", err)
	}
	return result
}

// await processes one completion; a failed flow is returned as FlowError.
func (s *Scheduler) await(ctx context.Context, r *run) error {
	var c completion
	select {
	case c = <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	t := r.running[c.index]
	delete(r.running, c.index)
	flowID := r.nodes[c.index].flow.ID
	logger := ctxlog.FromContext(ctx)
	switch c.result.Outcome {
	case Succeeded:
		r.blocking.clear(c.index)
		logger.Info("completed flow", "flow", flowID, "execution", t.executionID)
	case Cancelled:
		logger.Warn("flow cancelled", "flow", flowID, "execution", t.executionID, "error", c.result.Err)
	default:
		return &FlowError{
			BatchID:     r.batchID,
			FlowID:      flowID,
			ExecutionID: t.executionID,
			Err:         c.result.Err,
			Skipped:     r.pendingIDs(),
		}
	}
	return nil
}

// teardown cancels running flows and waits for them; it returns the sorted
// ids of flows that did not succeed.
func (s *Scheduler) teardown(ctx context.Context, r *run) []string {
	logger := ctxlog.FromContext(ctx)
	for _, t := range r.running {
		t.cancel()
	}
	var cancelled []string
	for len(r.running) > 0 {
		c := <-r.done
		t := r.running[c.index]
		delete(r.running, c.index)
		flowID := r.nodes[c.index].flow.ID
		if c.result.Outcome == Succeeded {
			r.blocking.clear(c.index)
			continue
		}
		cancelled = append(cancelled, flowID)
		logger.Warn("flow stopped during teardown", "flow", flowID, "execution", t.executionID, "outcome", c.result.Outcome.String(), "error", c.result.Err)
	}
	sort.Strings(cancelled)
	return cancelled
}

func (r *run) submittable(i int) bool {
	for _, b := range r.nodes[i].blockers {
		if r.blocking.has(b) {
			return false
		}
	}
	return true
}

func (r *run) pendingIDs() []string {
	ret := make([]string, 0, len(r.pending))
	for _, i := range r.pending {
		ret = append(ret, r.nodes[i].flow.ID)
	}
	sort.Strings(ret)
	return ret
}
