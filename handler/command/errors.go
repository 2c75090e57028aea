package command

import (
	"errors"
	"fmt"

	"github.com/viant/phaser/model"
)

// ErrNoCommand is returned for an execution without command words.
var ErrNoCommand = errors.New("command: empty command")

// ExitError reports a command finishing with a non-zero status.
type ExitError struct {
	Label       string
	Status      int
	BatchID     string
	FlowID      string
	Phase       model.Phase
	ExecutionID string
	Err         error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("unexpected exit code from %s: code=%d (batch=%s, flow=%s, phase=%s, execution=%s)",
		e.Label, e.Status, e.BatchID, e.FlowID, e.Phase, e.ExecutionID)
}

func (e *ExitError) Unwrap() error { return e.Err }
