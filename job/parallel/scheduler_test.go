package parallel

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/phaser/job"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

type testJob struct {
	id       string
	blockers []string
	resource string
	err      error
	run      func(ctx context.Context) error
}

func (j *testJob) ID() string           { return j.id }
func (j *testJob) Label() string        { return j.id }
func (j *testJob) BlockerIDs() []string { return j.blockers }
func (j *testJob) ResourceID() string   { return j.resource }

func (j *testJob) Execute(ctx context.Context, _ monitor.Monitor, _ *model.Context) error {
	if j.run != nil {
		if err := j.run(ctx); err != nil {
			return err
		}
	}
	return j.err
}

type nopMonitor struct{}

func (nopMonitor) Open(int)               {}
func (nopMonitor) Started(string)         {}
func (nopMonitor) Finished(string, error) {}
func (nopMonitor) Output() io.Writer      { return io.Discard }
func (nopMonitor) Close() error           { return nil }

func newContext(t *testing.T) *model.Context {
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, nil)
	require.NoError(t, err)
	return ectx
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		slots       map[string]int
		expectErr   bool
	}{
		{description: "default only", slots: map[string]int{"default": 2}},
		{description: "resource slots", slots: map[string]int{"default": 1, "db": 3}},
		{description: "missing default", slots: map[string]int{"db": 3}, expectErr: true},
		{description: "zero limit", slots: map[string]int{"default": 1, "db": 0}, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, err := New(&Config{Slots: tc.slots})
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrInvalidSlots)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestScheduler_Concurrent(t *testing.T) {
	scheduler, err := New(&Config{Slots: map[string]int{"default": 1, "para": 2}})
	require.NoError(t, err)

	arrived := sync.WaitGroup{}
	arrived.Add(3)
	release := make(chan struct{})
	barrier := func(ctx context.Context) error {
		arrived.Done()
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	jobs := []job.Job{
		&testJob{id: "a0", resource: "para", run: barrier},
		&testJob{id: "a1", resource: "para", run: barrier},
		&testJob{id: "a2", resource: "other", run: barrier},
	}
	go func() {
		arrived.Wait()
		close(release)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, scheduler.Execute(ctx, nopMonitor{}, newContext(t), jobs, job.Strict))
}

func TestScheduler_SlotLimit(t *testing.T) {
	scheduler, err := New(&Config{Slots: map[string]int{"default": 1, "db": 2}})
	require.NoError(t, err)
	var current, peak int32
	work := func(context.Context) error {
		value := atomic.AddInt32(&current, 1)
		for {
			prev := atomic.LoadInt32(&peak)
			if value <= prev || atomic.CompareAndSwapInt32(&peak, prev, value) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return nil
	}
	var jobs []job.Job
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		jobs = append(jobs, &testJob{id: id, resource: "db", run: work})
	}
	require.NoError(t, scheduler.Execute(context.Background(), nopMonitor{}, newContext(t), jobs, job.Strict))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestScheduler_Policies(t *testing.T) {
	boom := errors.New("boom")
	testCases := []struct {
		description string
		policy      job.Policy
		jobs        func(ran *sync.Map) []job.Job
		expectRan   []string
		expectNot   []string
		expectIs    []error
	}{
		{
			description: "strict stops starting dependents",
			policy:      job.Strict,
			jobs: func(ran *sync.Map) []job.Job {
				mark := func(id string) func(context.Context) error {
					return func(context.Context) error {
						ran.Store(id, true)
						return nil
					}
				}
				return []job.Job{
					&testJob{id: "a", err: boom, run: mark("a")},
					&testJob{id: "b", blockers: []string{"a"}, run: mark("b")},
				}
			},
			expectRan: []string{"a"},
			expectNot: []string{"b"},
			expectIs:  []error{boom},
		},
		{
			description: "best effort runs independent jobs",
			policy:      job.BestEffort,
			jobs: func(ran *sync.Map) []job.Job {
				mark := func(id string) func(context.Context) error {
					return func(context.Context) error {
						ran.Store(id, true)
						return nil
					}
				}
				return []job.Job{
					&testJob{id: "a", err: boom, run: mark("a")},
					&testJob{id: "b", blockers: []string{"a"}, run: mark("b")},
					&testJob{id: "c", blockers: []string{"d"}, run: mark("c")},
					&testJob{id: "d", run: mark("d")},
				}
			},
			expectRan: []string{"a", "c", "d"},
			expectNot: []string{"b"},
			expectIs:  []error{boom},
		},
		{
			description: "cyclic blockers",
			policy:      job.BestEffort,
			jobs: func(ran *sync.Map) []job.Job {
				return []job.Job{
					&testJob{id: "a", blockers: []string{"b"}},
					&testJob{id: "b", blockers: []string{"a"}},
				}
			},
			expectIs: []error{job.ErrUnresolved},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			scheduler, err := New(&Config{Slots: map[string]int{"default": 4}})
			require.NoError(t, err)
			ran := &sync.Map{}
			err = scheduler.Execute(context.Background(), nopMonitor{}, newContext(t), tc.jobs(ran), tc.policy)
			for _, expect := range tc.expectIs {
				assert.ErrorIs(t, err, expect)
			}
			for _, id := range tc.expectRan {
				_, ok := ran.Load(id)
				assert.True(t, ok, id)
			}
			for _, id := range tc.expectNot {
				_, ok := ran.Load(id)
				assert.False(t, ok, id)
			}
		})
	}
}
