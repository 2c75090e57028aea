// Package job defines runnable jobs and the scheduler contract phases use to
// run them.
package job

import (
	"context"

	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

// Policy controls how a scheduler reacts to job failures.
type Policy int

const (
	// Strict stops starting jobs after the first failure.
	Strict Policy = iota
	// BestEffort skips dependents of failed jobs and runs everything else.
	BestEffort
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "STRICT"
	case BestEffort:
		return "BEST_EFFORT"
	}
	return "UNKNOWN"
}

// Job is a unit of work bound to a handler.
type Job interface {
	ID() string
	// Label identifies the job in logs and monitors.
	Label() string
	// BlockerIDs lists jobs of the same set that must succeed first.
	BlockerIDs() []string
	// ResourceID groups jobs competing for the same resource.
	ResourceID() string
	Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context) error
}

// Scheduler runs a set of jobs honoring blockers and policy.
type Scheduler interface {
	Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context, jobs []Job, policy Policy) error
}
