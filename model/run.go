package model

import (
	"context"
	"errors"
	"time"
)

// RunStatus is the outcome of a flow run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Run records one finished flow execution.
type Run struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batchId"`
	FlowID      string    `json:"flowId"`
	ExecutionID string    `json:"executionId"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	EndedAt     time.Time `json:"endedAt"`
}

// RunID returns the history key of a flow execution.
func RunID(batchID, flowID, executionID string) string {
	return batchID + "/" + flowID + "/" + executionID
}

// NewRun creates a run record; err selects the status.
func NewRun(batchID, flowID, executionID string, started, ended time.Time, err error) *Run {
	ret := &Run{
		ID:          RunID(batchID, flowID, executionID),
		BatchID:     batchID,
		FlowID:      flowID,
		ExecutionID: executionID,
		Status:      RunSucceeded,
		StartedAt:   started,
		EndedAt:     ended,
	}
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		ret.Status = RunCancelled
		ret.Error = err.Error()
	default:
		ret.Status = RunFailed
		ret.Error = err.Error()
	}
	return ret
}

// Elapsed returns the run duration.
func (r *Run) Elapsed() time.Duration { return r.EndedAt.Sub(r.StartedAt) }

// Field returns a filterable field value by name.
func (r *Run) Field(name string) (string, bool) {
	switch name {
	case "BatchID":
		return r.BatchID, true
	case "FlowID":
		return r.FlowID, true
	case "ExecutionID":
		return r.ExecutionID, true
	case "Status":
		return string(r.Status), true
	}
	return "", false
}

// Clone returns a copy of the run.
func (r *Run) Clone() *Run {
	ret := *r
	return &ret
}
