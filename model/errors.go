package model

import "errors"

var (
	// ErrEmptyID is returned when a required identifier is empty.
	ErrEmptyID = errors.New("model: empty id")

	// ErrUnknownPhase is returned for an unrecognised phase name.
	ErrUnknownPhase = errors.New("model: unknown phase")

	// ErrInvalidBatch is returned when a batch definition is inconsistent.
	ErrInvalidBatch = errors.New("model: invalid batch")

	// ErrUnresolvedVariable is returned when an execution references an
	// argument that was not supplied.
	ErrUnresolvedVariable = errors.New("model: unresolved variable")
)
