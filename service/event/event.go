package event

import "time"

// Type identifies what happened.
type Type string

const (
	TypePhaseStarted  Type = "phase.started"
	TypeJobStarted    Type = "job.started"
	TypeJobFinished   Type = "job.finished"
	TypeJobFailed     Type = "job.failed"
	TypePhaseFinished Type = "phase.finished"
)

// Event describes a phase or job transition of a flow execution.
type Event struct {
	Type        Type              `json:"type"`
	BatchID     string            `json:"batchId"`
	FlowID      string            `json:"flowId"`
	ExecutionID string            `json:"executionId"`
	Phase       string            `json:"phase"`
	Job         string            `json:"job,omitempty"`
	Error       string            `json:"error,omitempty"`
	Jobs        int               `json:"jobs,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
