package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Wildcard is the profile serving command executions without a dedicated handler.
const Wildcard = "*"

// Registry holds the data-processing handler and command handlers by profile.
type Registry struct {
	data     Handler
	commands map[string]Handler
}

// Option configures a Registry.
type Option func(r *Registry)

// WithData sets the data-processing handler.
func WithData(h Handler) Option {
	return func(r *Registry) {
		r.data = h
	}
}

// WithCommand registers a command handler for profile; use Wildcard for the fallback.
func WithCommand(profile string, h Handler) Option {
	return func(r *Registry) {
		r.commands[profile] = h
	}
}

// NewRegistry creates a registry; a data handler is required.
func NewRegistry(options ...Option) (*Registry, error) {
	ret := &Registry{commands: map[string]Handler{}}
	for _, opt := range options {
		opt(ret)
	}
	if ret.data == nil {
		return nil, ErrNoDataHandler
	}
	for profile, h := range ret.commands {
		if h == nil {
			return nil, fmt.Errorf("handler: profile %q has nil handler", profile)
		}
	}
	seen := map[string]Handler{}
	for _, h := range ret.all() {
		if prev, ok := seen[h.ID()]; ok && prev != h {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHandler, h.ID())
		}
		seen[h.ID()] = h
	}
	return ret, nil
}

// Data returns the data-processing handler.
func (r *Registry) Data() Handler { return r.data }

// Command returns the handler for profile, falling back to the wildcard profile.
func (r *Registry) Command(profile string) (Handler, bool) {
	if h, ok := r.commands[profile]; ok {
		return h, true
	}
	h, ok := r.commands[Wildcard]
	return h, ok
}

// Profiles returns registered command profiles sorted.
func (r *Registry) Profiles() []string {
	ret := make([]string, 0, len(r.commands))
	for profile := range r.commands {
		ret = append(ret, profile)
	}
	sort.Strings(ret)
	return ret
}

// Handlers returns the data handler followed by command handlers in profile
// order. A handler registered under several profiles appears once.
func (r *Registry) Handlers() []Handler {
	var ret []Handler
	seen := map[string]bool{}
	for _, h := range r.all() {
		if seen[h.ID()] {
			continue
		}
		seen[h.ID()] = true
		ret = append(ret, h)
	}
	return ret
}

// Close closes every handler implementing Closer.
func (r *Registry) Close(ctx context.Context) error {
	var errs []error
	for _, h := range r.Handlers() {
		if closer, ok := h.(Closer); ok {
			if err := closer.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", h.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) all() []Handler {
	ret := []Handler{r.data}
	for _, profile := range r.Profiles() {
		ret = append(ret, r.commands[profile])
	}
	return ret
}
