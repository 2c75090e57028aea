// Package dispatch routes handler calls to one of several delegates.
//
// Routes are looked up per batch with the keys, most specific first:
//
//	<flow>.<phase>.<execution>
//	<flow>.<phase>.*
//	<flow>.*
//	*
//
// and fall back to the delegate named "default".
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/phaser/handler"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
	"gopkg.in/yaml.v3"
)

// DefaultDelegate names the delegate used when no route matches.
const DefaultDelegate = "default"

const wildcard = "*"

var (
	// ErrNoDefault is returned when no delegate is named "default".
	ErrNoDefault = errors.New("dispatch: default delegate is required")
	// ErrInvalidTarget is returned when a route names an unknown delegate.
	ErrInvalidTarget = errors.New("dispatch: invalid dispatch target")
)

// Handler delegates every call to a handler selected by route.
type Handler struct {
	id           string
	delegates    map[string]handler.Handler
	routes       map[string]map[string]string
	confURL      string
	fs           afs.Service
	forceSetup   string
	forceCleanup string
	mux          sync.Mutex
	loaded       map[string]map[string]string
}

// Option configures a Handler.
type Option func(h *Handler)

// WithRoutes sets routes for batchID.
func WithRoutes(batchID string, routes map[string]string) Option {
	return func(h *Handler) {
		h.routes[batchID] = routes
	}
}

// WithConfURL loads routes of batches without inline routes from
// <URL>/<batchID>.yaml; a missing file means no routes.
func WithConfURL(fs afs.Service, URL string) Option {
	return func(h *Handler) {
		h.fs = fs
		h.confURL = URL
	}
}

// WithSetup forces the delegate used for Setup.
func WithSetup(name string) Option {
	return func(h *Handler) {
		h.forceSetup = name
	}
}

// WithCleanup forces the delegate used for Cleanup.
func WithCleanup(name string) Option {
	return func(h *Handler) {
		h.forceCleanup = name
	}
}

// New creates a dispatcher; delegates must contain DefaultDelegate.
func New(id string, delegates map[string]handler.Handler, options ...Option) (*Handler, error) {
	ret := &Handler{
		id:        id,
		delegates: delegates,
		routes:    map[string]map[string]string{},
		loaded:    map[string]map[string]string{},
	}
	for _, opt := range options {
		opt(ret)
	}
	if _, ok := delegates[DefaultDelegate]; !ok {
		return nil, ErrNoDefault
	}
	for _, name := range []string{ret.forceSetup, ret.forceCleanup} {
		if _, ok := delegates[name]; name != "" && !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, name)
		}
	}
	if ret.confURL != "" && ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret, nil
}

func (h *Handler) ID() string { return h.id }

func (h *Handler) Setup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	target, err := h.lifecycleTarget(ctx, ectx, h.forceSetup)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("dispatching setup", "handler", h.id, "target", target.ID(), "batch", ectx.BatchID(), "flow", ectx.FlowID())
	return target.Setup(ctx, mon, ectx)
}

func (h *Handler) Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context, execution *model.Execution) error {
	target, err := h.Resolve(ctx, ectx, execution.ID)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("dispatching execution", "handler", h.id, "target", target.ID(), "batch", ectx.BatchID(), "flow", ectx.FlowID(), "job", execution.ID)
	return target.Execute(ctx, mon, ectx, execution)
}

func (h *Handler) Cleanup(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error {
	target, err := h.lifecycleTarget(ctx, ectx, h.forceCleanup)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("dispatching cleanup", "handler", h.id, "target", target.ID(), "batch", ectx.BatchID(), "flow", ectx.FlowID())
	return target.Cleanup(ctx, mon, ectx)
}

// Close closes delegates implementing handler.Closer.
func (h *Handler) Close(ctx context.Context) error {
	var errs []error
	for _, name := range h.delegateNames() {
		if closer, ok := h.delegates[name].(handler.Closer); ok {
			if err := closer.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Resolve selects the delegate for executionID; an empty executionID skips
// execution specific routes.
func (h *Handler) Resolve(ctx context.Context, ectx *model.Context, executionID string) (handler.Handler, error) {
	routes, err := h.batchRoutes(ctx, ectx.BatchID())
	if err != nil {
		return nil, err
	}
	for _, key := range routeKeys(ectx, executionID) {
		name, ok := routes[key]
		if !ok {
			continue
		}
		target, ok := h.delegates[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s (batch=%s, flow=%s, phase=%s, execution=%s)",
				ErrInvalidTarget, name, ectx.BatchID(), ectx.FlowID(), ectx.Phase(), executionID)
		}
		return target, nil
	}
	return h.delegates[DefaultDelegate], nil
}

func (h *Handler) lifecycleTarget(ctx context.Context, ectx *model.Context, forced string) (handler.Handler, error) {
	if forced != "" {
		return h.delegates[forced], nil
	}
	return h.Resolve(ctx, ectx, "")
}

func routeKeys(ectx *model.Context, executionID string) []string {
	phase := ectx.Phase().Symbol()
	var ret []string
	if executionID != "" {
		ret = append(ret, ectx.FlowID()+"."+phase+"."+executionID)
	}
	return append(ret, ectx.FlowID()+"."+phase+"."+wildcard, ectx.FlowID()+"."+wildcard, wildcard)
}

func (h *Handler) batchRoutes(ctx context.Context, batchID string) (map[string]string, error) {
	if routes, ok := h.routes[batchID]; ok {
		return routes, nil
	}
	if h.confURL == "" {
		return nil, nil
	}
	h.mux.Lock()
	defer h.mux.Unlock()
	if routes, ok := h.loaded[batchID]; ok {
		return routes, nil
	}
	routes, err := h.loadRoutes(ctx, batchID)
	if err != nil {
		return nil, err
	}
	h.loaded[batchID] = routes
	return routes, nil
}

func (h *Handler) loadRoutes(ctx context.Context, batchID string) (map[string]string, error) {
	URL := url.Join(h.confURL, batchID+".yaml")
	exists, err := h.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check dispatch routes %s: %w", URL, err)
	}
	if !exists {
		ctxlog.FromContext(ctx).Debug("no dispatch routes", "handler", h.id, "batch", batchID, "url", URL)
		return nil, nil
	}
	data, err := h.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load dispatch routes %s: %w", URL, err)
	}
	routes := map[string]string{}
	if err = yaml.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("invalid dispatch routes %s: %w", URL, err)
	}
	return routes, nil
}

func (h *Handler) delegateNames() []string {
	ret := make([]string, 0, len(h.delegates))
	for name := range h.delegates {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Config declares delegates and routes.
type Config struct {
	Delegates map[string]*handler.Config   `json:"delegates" yaml:"delegates"`
	Routes    map[string]map[string]string `json:"routes,omitempty" yaml:"routes,omitempty"`
	ConfURL   string                       `json:"confURL,omitempty" yaml:"confURL,omitempty"`
	Setup     string                       `json:"setup,omitempty" yaml:"setup,omitempty"`
	Cleanup   string                       `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
}

// Constructor builds a dispatcher and its delegates through the factory.
func Constructor(ctx context.Context, factory *handler.Factory, config *handler.Config) (handler.Handler, error) {
	cfg := &Config{}
	if err := config.Decode(cfg); err != nil {
		return nil, err
	}
	delegates := map[string]handler.Handler{}
	for name, delegateConfig := range cfg.Delegates {
		if delegateConfig.ID == "" {
			clone := *delegateConfig
			clone.ID = config.ID + "." + name
			delegateConfig = &clone
		}
		delegate, err := factory.New(ctx, delegateConfig)
		if err != nil {
			return nil, err
		}
		delegates[name] = delegate
	}
	options := []Option{WithSetup(cfg.Setup), WithCleanup(cfg.Cleanup)}
	for batchID, routes := range cfg.Routes {
		options = append(options, WithRoutes(batchID, routes))
	}
	if cfg.ConfURL != "" {
		options = append(options, WithConfURL(afs.New(), cfg.ConfURL))
	}
	ret, err := New(config.ID, delegates, options...)
	if err != nil {
		return nil, err
	}
	return ret, nil
}
