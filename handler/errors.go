package handler

import (
	"errors"
	"fmt"

	"github.com/viant/phaser/model"
)

var (
	// ErrMissingHandler is returned when no handler serves an execution profile.
	ErrMissingHandler = errors.New("handler: missing handler")

	// ErrDuplicateHandler is returned when distinct handlers share an id.
	ErrDuplicateHandler = errors.New("handler: duplicate handler id")

	// ErrNoDataHandler is returned when a registry has no data-processing handler.
	ErrNoDataHandler = errors.New("handler: data handler is required")

	// ErrUnknownKind is returned by the factory for an unregistered kind.
	ErrUnknownKind = errors.New("handler: unknown kind")
)

// MissingError reports a command execution whose profile has no handler.
type MissingError struct {
	Profile     string
	BatchID     string
	FlowID      string
	Phase       model.Phase
	Module      string
	ExecutionID string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("profile %q is not defined (batch=%s, flow=%s, phase=%s, module=%s, id=%s)",
		e.Profile, e.BatchID, e.FlowID, e.Phase.Symbol(), e.Module, e.ExecutionID)
}

func (e *MissingError) Unwrap() error { return ErrMissingHandler }
