package batch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDeadlock is wrapped by DeadlockError.
	ErrDeadlock = errors.New("batch: deadlock")

	// ErrDuplicateFlow is returned when two flows share an id.
	ErrDuplicateFlow = errors.New("batch: duplicate flow id")
)

// DeadlockError names pending flows whose blockers can never complete.
type DeadlockError struct {
	BatchID string
	FlowIDs []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("deadlock in batch %s: flows can never start: %s", e.BatchID, strings.Join(e.FlowIDs, ", "))
}

func (e *DeadlockError) Unwrap() error { return ErrDeadlock }

// FlowError reports the flow failure that stopped a batch run.
type FlowError struct {
	BatchID     string
	FlowID      string
	ExecutionID string
	Err         error
	// Cancelled lists running flows stopped because of the failure.
	Cancelled []string
	// Skipped lists flows that were never started.
	Skipped []string
}

func (e *FlowError) Error() string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("flow %s (execution %s) of batch %s failed: %v", e.FlowID, e.ExecutionID, e.BatchID, e.Err))
	if len(e.Cancelled) > 0 {
		builder.WriteString("; cancelled flows: ")
		builder.WriteString(strings.Join(e.Cancelled, ", "))
	}
	if len(e.Skipped) > 0 {
		builder.WriteString("; skipped flows: ")
		builder.WriteString(strings.Join(e.Skipped, ", "))
	}
	return builder.String()
}

func (e *FlowError) Unwrap() error { return e.Err }
