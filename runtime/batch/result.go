package batch

import (
	"context"
	"errors"
)

// Outcome classifies how a flow task ended.
type Outcome int

const (
	Succeeded Outcome = iota
	Cancelled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of one flow task; Err is nil on success.
type Result struct {
	Outcome Outcome
	Err     error
}

// resultOf classifies err returned by a task run under ctx. A cancellation
// error counts as Cancelled only when ctx itself was cancelled.
func resultOf(ctx context.Context, err error) Result {
	switch {
	case err == nil:
		return Result{Outcome: Succeeded}
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return Result{Outcome: Cancelled, Err: err}
	}
	return Result{Outcome: Failed, Err: err}
}
