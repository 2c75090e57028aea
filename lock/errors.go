package lock

import "errors"

var (
	// ErrLocked is returned when a lock entry is held already.
	ErrLocked = errors.New("lock: already locked")

	// ErrNotLocked is returned when releasing a flow that was not begun.
	ErrNotLocked = errors.New("lock: not locked")

	// ErrClosed is returned by a lock used after Close.
	ErrClosed = errors.New("lock: closed")

	// ErrUnknownScope is returned for an unrecognised scope.
	ErrUnknownScope = errors.New("lock: unknown scope")
)
