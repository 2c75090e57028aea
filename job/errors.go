package job

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidJobs is returned for duplicate ids or unknown blockers.
	ErrInvalidJobs = errors.New("job: invalid jobs")

	// ErrUnresolved is wrapped by UnresolvedError.
	ErrUnresolved = errors.New("job: unresolved blockers")
)

// UnresolvedError lists jobs that could never start.
type UnresolvedError struct {
	IDs []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("jobs can never start, blockers are cyclic: %s", strings.Join(e.IDs, ", "))
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

// Failed wraps err with the job label.
func Failed(j Job, err error) error {
	return fmt.Errorf("job %s failed: %w", j.Label(), err)
}
