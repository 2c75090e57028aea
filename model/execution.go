package model

import (
	"errors"
	"fmt"

	"github.com/viant/phaser/model/expander"
)

// Kind identifies how an execution is bound to a handler.
type Kind string

const (
	// KindCommand executions run through the handler registered for their profile.
	KindCommand Kind = "command"
	// KindData executions run through the single data-processing handler.
	KindData Kind = "data"
)

// Execution is one declared unit of work within a phase.
type Execution struct {
	ID         string   `json:"id" yaml:"id"`
	Kind       Kind     `json:"kind" yaml:"kind"`
	BlockerIDs []string `json:"blockerIds,omitempty" yaml:"blockerIds,omitempty"`
	ResourceID string   `json:"resourceId,omitempty" yaml:"resourceId,omitempty"`

	// Command kind binding.
	Profile string   `json:"profile,omitempty" yaml:"profile,omitempty"`
	Module  string   `json:"module,omitempty" yaml:"module,omitempty"`
	Command []string `json:"command,omitempty" yaml:"command,omitempty"`

	// Data kind binding.
	ClassName  string            `json:"className,omitempty" yaml:"className,omitempty"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`

	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Resolve returns a copy with ${name} placeholders expanded from args.
func (e *Execution) Resolve(args map[string]string) (*Execution, error) {
	lookup := expander.FromMap(args)
	ret := *e
	ret.BlockerIDs = append([]string(nil), e.BlockerIDs...)
	var err error
	if ret.Command, err = expander.ExpandAll(e.Command, lookup); err != nil {
		return nil, e.resolveError("command", err)
	}
	if ret.Env, err = expander.ExpandMap(e.Env, lookup); err != nil {
		return nil, e.resolveError("env", err)
	}
	if ret.Properties, err = expander.ExpandMap(e.Properties, lookup); err != nil {
		return nil, e.resolveError("properties", err)
	}
	if ret.ClassName, err = expander.Expand(e.ClassName, lookup); err != nil {
		return nil, e.resolveError("className", err)
	}
	return &ret, nil
}

func (e *Execution) resolveError(field string, err error) error {
	if errors.Is(err, expander.ErrUnresolved) {
		return fmt.Errorf("%w: execution %s %s: %v", ErrUnresolvedVariable, e.ID, field, err)
	}
	return fmt.Errorf("execution %s %s: %w", e.ID, field, err)
}
