// Package nop provides a handler that records calls and succeeds; it backs
// simulation runs and tests.
package nop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

const (
	MethodSetup   = "setup"
	MethodExecute = "execute"
	MethodCleanup = "cleanup"
)

// Call is one recorded handler invocation.
type Call struct {
	Method      string
	BatchID     string
	FlowID      string
	Phase       model.Phase
	ExecutionID string
	// Job is the execution id for execute calls.
	Job string
}

// Handler records every call.
type Handler struct {
	id       string
	delay    time.Duration
	failures map[string]error
	mux      sync.Mutex
	calls    []Call
}

// Option configures a Handler.
type Option func(h *Handler)

// WithDelay makes every call wait for d or until the context is done.
func WithDelay(d time.Duration) Option {
	return func(h *Handler) {
		h.delay = d
	}
}

// WithFailure makes calls for key fail with err; key is an execution id or
// one of MethodSetup and MethodCleanup.
func WithFailure(key string, err error) Option {
	return func(h *Handler) {
		h.failures[key] = err
	}
}

// New creates a handler.
func New(id string, options ...Option) *Handler {
	ret := &Handler{id: id, failures: map[string]error{}}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (h *Handler) ID() string { return h.id }

func (h *Handler) Setup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	return h.call(ctx, mon, ectx, MethodSetup, "")
}

func (h *Handler) Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context, execution *model.Execution) error {
	return h.call(ctx, mon, ectx, MethodExecute, execution.ID)
}

func (h *Handler) Cleanup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	return h.call(ctx, mon, ectx, MethodCleanup, "")
}

// Calls returns recorded calls in invocation order.
func (h *Handler) Calls() []Call {
	h.mux.Lock()
	defer h.mux.Unlock()
	return append([]Call(nil), h.calls...)
}

// Jobs returns the execution ids of recorded execute calls for phase.
func (h *Handler) Jobs(phase model.Phase) []string {
	var ret []string
	for _, call := range h.Calls() {
		if call.Method == MethodExecute && call.Phase == phase {
			ret = append(ret, call.Job)
		}
	}
	return ret
}

func (h *Handler) call(ctx context.Context, mon monitor.Monitor, ectx *model.Context, method, job string) error {
	h.mux.Lock()
	h.calls = append(h.calls, Call{
		Method:      method,
		BatchID:     ectx.BatchID(),
		FlowID:      ectx.FlowID(),
		Phase:       ectx.Phase(),
		ExecutionID: ectx.ExecutionID(),
		Job:         job,
	})
	h.mux.Unlock()
	if mon != nil {
		fmt.Fprintf(mon.Output(), "%s %s %s\n", h.id, method, job)
	}
	if h.delay > 0 {
		timer := time.NewTimer(h.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	key := job
	if key == "" {
		key = method
	}
	return h.failures[key]
}

// Config holds nop options.
type Config struct {
	DelayMs int `yaml:"delayMs,omitempty"`
}

// Constructor builds a nop handler from configuration.
func Constructor(_ context.Context, _ *handler.Factory, config *handler.Config) (handler.Handler, error) {
	cfg := &Config{}
	if err := config.Decode(cfg); err != nil {
		return nil, err
	}
	return New(config.ID, WithDelay(time.Duration(cfg.DelayMs)*time.Millisecond)), nil
}
