package task

import "errors"

var (
	// ErrFlowNotFound is returned when a flow id is not part of the batch.
	ErrFlowNotFound = errors.New("task: flow not found")

	// ErrUnknownFlow is returned when a definition names a flow the batch does not declare.
	ErrUnknownFlow = errors.New("task: unknown flow in definition")

	// ErrUnknownDefinition is returned for unsupported definition keys.
	ErrUnknownDefinition = errors.New("task: unknown definition")

	// ErrInvalidDefinition is returned for a definition value that cannot be parsed.
	ErrInvalidDefinition = errors.New("task: invalid definition value")
)
