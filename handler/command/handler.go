// Package command runs command executions through gosh shell sessions.
package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/viant/gosh/runner"
	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
	"golang.org/x/sync/semaphore"
)

const (
	EnvBatchID     = "BATCH_ID"
	EnvFlowID      = "FLOW_ID"
	EnvExecutionID = "EXECUTION_ID"
	EnvPhase       = "PHASE"
	EnvArguments   = "BATCH_ARGUMENTS"
)

var safeWord = regexp.MustCompile(`^[A-Za-z0-9_@%+:,./-]+$`)

// Handler runs command executions on one host. Each concurrent Run holds
// its own session; idle sessions are reused.
type Handler struct {
	id     string
	config *Config
	dial   Dialer
	limit  *semaphore.Weighted
	mux    sync.Mutex
	idle   []Session
	open   map[Session]bool
}

// Option configures a Handler.
type Option func(h *Handler)

// WithDialer replaces the gosh dialer.
func WithDialer(dialer Dialer) Option {
	return func(h *Handler) {
		h.dial = dialer
	}
}

// New creates a command handler.
func New(id string, config *Config, options ...Option) *Handler {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	ret := &Handler{id: id, config: config, dial: Dial, open: map[Session]bool{}}
	for _, opt := range options {
		opt(ret)
	}
	if config.MaxSessions > 0 {
		ret.limit = semaphore.NewWeighted(int64(config.MaxSessions))
	}
	return ret
}

func (h *Handler) ID() string { return h.id }

// Config returns the handler configuration.
func (h *Handler) Config() *Config { return h.config }

func (h *Handler) Setup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	if len(h.config.Setup) == 0 {
		return nil
	}
	return h.Run(ctx, mon, ectx, h.id+":setup", h.config.Setup, nil)
}

func (h *Handler) Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context, execution *model.Execution) error {
	if len(execution.Command) == 0 {
		return fmt.Errorf("%w: %s", ErrNoCommand, execution.ID)
	}
	return h.Run(ctx, mon, ectx, execution.ID, execution.Command, execution.Env)
}

func (h *Handler) Cleanup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	if len(h.config.Cleanup) == 0 {
		return nil
	}
	return h.Run(ctx, mon, ectx, h.id+":cleanup", h.config.Cleanup, nil)
}

// Run executes args with the handler prefix. The environment is the handler
// env, then the variables derived from ectx, then env.
func (h *Handler) Run(ctx context.Context, mon monitor.Monitor, ectx *model.Context, label string, args []string, env map[string]string) error {
	words := append(append([]string(nil), h.config.Prefix...), args...)
	line := CommandLine(h.config.Directory, h.environment(ectx, env), words)
	s, err := h.acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("running command", "handler", h.id, "label", label, "command", line)
	stdout, status, err := s.Run(ctx, line, runner.WithTimeout(h.config.TimeoutMs))
	h.release(s)
	if stdout != "" && mon != nil {
		_, _ = fmt.Fprintln(mon.Output(), stdout)
	}
	if status != 0 {
		return &ExitError{
			Label:       label,
			Status:      status,
			BatchID:     ectx.BatchID(),
			FlowID:      ectx.FlowID(),
			Phase:       ectx.Phase(),
			ExecutionID: ectx.ExecutionID(),
			Err:         err,
		}
	}
	if err != nil {
		return fmt.Errorf("command %s failed: %w", label, err)
	}
	return nil
}

// Close closes idle sessions; sessions still running a command are closed
// when that command returns.
func (h *Handler) Close(ctx context.Context) error {
	h.mux.Lock()
	defer h.mux.Unlock()
	var errs []error
	for _, s := range h.idle {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session %s: %w", h.config.Host, err))
		}
	}
	h.open = map[Session]bool{}
	h.idle = nil
	return errors.Join(errs...)
}

// acquire takes an idle session or dials a new one, waiting for a free slot
// when MaxSessions is set.
func (h *Handler) acquire(ctx context.Context) (Session, error) {
	if h.limit != nil {
		if err := h.limit.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	h.mux.Lock()
	if n := len(h.idle); n > 0 {
		s := h.idle[n-1]
		h.idle = h.idle[:n-1]
		h.mux.Unlock()
		return s, nil
	}
	h.mux.Unlock()
	s, err := h.dial(ctx, h.config)
	if err != nil {
		if h.limit != nil {
			h.limit.Release(1)
		}
		return nil, err
	}
	h.mux.Lock()
	h.open[s] = true
	h.mux.Unlock()
	return s, nil
}

// release returns s to the idle list; a session in use during Close is closed.
func (h *Handler) release(s Session) {
	h.mux.Lock()
	if h.open[s] {
		h.idle = append(h.idle, s)
		h.mux.Unlock()
	} else {
		h.mux.Unlock()
		_ = s.Close()
	}
	if h.limit != nil {
		h.limit.Release(1)
	}
}

func (h *Handler) environment(ectx *model.Context, env map[string]string) map[string]string {
	ret := make(map[string]string, len(h.config.Env)+len(env)+5)
	for k, v := range h.config.Env {
		ret[k] = v
	}
	ret[EnvBatchID] = ectx.BatchID()
	ret[EnvFlowID] = ectx.FlowID()
	ret[EnvExecutionID] = ectx.ExecutionID()
	ret[EnvPhase] = ectx.Phase().Symbol()
	ret[EnvArguments] = ectx.ArgumentsString()
	for k, v := range env {
		ret[k] = v
	}
	return ret
}

// CommandLine renders a shell command line; env is applied to the command
// only, sorted by key.
func CommandLine(directory string, env map[string]string, words []string) string {
	builder := strings.Builder{}
	if directory != "" {
		builder.WriteString("cd ")
		builder.WriteString(Quote(directory))
		builder.WriteString(" && ")
	}
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteByte('=')
		builder.WriteString(Quote(env[key]))
		builder.WriteByte(' ')
	}
	for i, word := range words {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(Quote(word))
	}
	return builder.String()
}

// Quote single-quotes text unless it is a plain shell word.
func Quote(text string) string {
	if safeWord.MatchString(text) {
		return text
	}
	return "'" + strings.ReplaceAll(text, "'", `'\''`) + "'"
}

// Constructor builds a command handler from configuration.
func Constructor(_ context.Context, _ *handler.Factory, config *handler.Config) (handler.Handler, error) {
	cfg := &Config{}
	if err := config.Decode(cfg); err != nil {
		return nil, err
	}
	return New(config.ID, cfg), nil
}
