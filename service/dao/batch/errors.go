package batch

import "errors"

var (
	// ErrUnsupportedFormat is returned for a definition URL with an unknown extension.
	ErrUnsupportedFormat = errors.New("batch: unsupported definition format")

	// ErrNotFound is returned when no definition exists for a batch id.
	ErrNotFound = errors.New("batch: definition not found")
)
