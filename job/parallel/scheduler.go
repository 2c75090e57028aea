// Package parallel runs independent jobs concurrently, limiting concurrent
// jobs per resource id.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/job"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
	"golang.org/x/sync/semaphore"
)

// DefaultResource names the slot used for resources without their own entry.
const DefaultResource = "default"

// ErrInvalidSlots is returned for a non-positive slot limit.
var ErrInvalidSlots = errors.New("parallel: invalid slots")

// Config defines slot limits per resource id.
type Config struct {
	Slots map[string]int `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{Slots: map[string]int{DefaultResource: 1}}
}

// Validate checks slot limits; the default slot is required.
func (c *Config) Validate() error {
	if _, ok := c.Slots[DefaultResource]; !ok {
		return fmt.Errorf("%w: %s slot is required", ErrInvalidSlots, DefaultResource)
	}
	keys := make([]string, 0, len(c.Slots))
	for key := range c.Slots {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if c.Slots[key] <= 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidSlots, key, c.Slots[key])
		}
	}
	return nil
}

// Scheduler runs jobs concurrently.
type Scheduler struct {
	slots map[string]*semaphore.Weighted
}

// New creates a scheduler; a nil config means DefaultConfig.
func New(config *Config) (*Scheduler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Scheduler{slots: map[string]*semaphore.Weighted{}}
	for resource, limit := range config.Slots {
		ret.slots[resource] = semaphore.NewWeighted(int64(limit))
	}
	return ret, nil
}

type result struct {
	job job.Job
	err error
}

func (s *Scheduler) Execute(ctx context.Context, mon monitor.Monitor, ectx *model.Context, jobs []job.Job, policy job.Policy) error {
	plan, err := job.NewPlan(jobs)
	if err != nil {
		return err
	}
	mon.Open(plan.Len())
	logger := ctxlog.FromContext(ctx)
	results := make(chan result, plan.Len())
	wg := sync.WaitGroup{}
	defer wg.Wait()

	var errs []error
	running := 0
	stopped := false
	for {
		if !stopped && ctx.Err() == nil {
			for _, next := range plan.Ready() {
				plan.Start(next.ID())
				running++
				wg.Add(1)
				go func(next job.Job) {
					defer wg.Done()
					results <- result{job: next, err: s.run(ctx, mon, ectx, next)}
				}(next)
			}
		}
		if running == 0 {
			break
		}
		done := <-results
		running--
		skipped := plan.Done(done.job.ID(), done.err)
		if done.err == nil {
			continue
		}
		err := job.Failed(done.job, done.err)
		errs = append(errs, err)
		if policy == job.Strict {
			stopped = true
			continue
		}
		logger.Warn("job failed", "job", done.job.Label(), "skipped", skipped, "error", err)
	}
	if stopped {
		return errs[0]
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(append(errs, err)...)
	}
	if err := plan.Unresolved(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Scheduler) run(ctx context.Context, mon monitor.Monitor, ectx *model.Context, next job.Job) error {
	slot := s.slot(next.ResourceID())
	if err := slot.Acquire(ctx, 1); err != nil {
		return err
	}
	defer slot.Release(1)
	mon.Started(next.Label())
	err := next.Execute(ctx, mon, ectx)
	mon.Finished(next.Label(), err)
	return err
}

func (s *Scheduler) slot(resourceID string) *semaphore.Weighted {
	if slot, ok := s.slots[resourceID]; ok {
		return slot
	}
	return s.slots[DefaultResource]
}
