// Package basic runs jobs one at a time, each after its blockers.
package basic

import (
	"context"
	"errors"

	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/job"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

// Scheduler is a sequential job scheduler.
type Scheduler struct{}

// New creates a sequential scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context, jobs []job.Job, policy job.Policy) error {
	plan, err := job.NewPlan(jobs)
	if err != nil {
		return err
	}
	mon.Open(plan.Len())
	logger := ctxlog.FromContext(ctx)
	var errs []error
	for {
		ready := plan.Ready()
		if len(ready) == 0 {
			break
		}
		next := ready[0]
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		plan.Start(next.ID())
		mon.Started(next.Label())
		err := next.Execute(ctx, mon, ectx)
		mon.Finished(next.Label(), err)
		skipped := plan.Done(next.ID(), err)
		if err == nil {
			continue
		}
		err = job.Failed(next, err)
		if policy == job.Strict {
			return err
		}
		logger.Warn("job failed", "job", next.Label(), "skipped", skipped, "error", err)
		errs = append(errs, err)
	}
	if err := plan.Unresolved(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
