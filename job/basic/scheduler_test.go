package basic

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/phaser/job"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

type recorder struct {
	mux   sync.Mutex
	order []string
}

func (r *recorder) add(id string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.order = append(r.order, id)
}

type testJob struct {
	id       string
	blockers []string
	err      error
	recorder *recorder
}

func (j *testJob) ID() string           { return j.id }
func (j *testJob) Label() string        { return j.id + "@test" }
func (j *testJob) BlockerIDs() []string { return j.blockers }
func (j *testJob) ResourceID() string   { return "" }

func (j *testJob) Execute(context.Context, monitor.Monitor, *model.Context) error {
	j.recorder.add(j.id)
	return j.err
}

type countingMonitor struct {
	opened   int
	started  int
	finished int
	failed   int
}

func (m *countingMonitor) Open(jobs int)     { m.opened = jobs }
func (m *countingMonitor) Started(string)    { m.started++ }
func (m *countingMonitor) Output() io.Writer { return io.Discard }
func (m *countingMonitor) Close() error      { return nil }

func (m *countingMonitor) Finished(_ string, err error) {
	m.finished++
	if err != nil {
		m.failed++
	}
}

func TestScheduler_Execute(t *testing.T) {
	boom := errors.New("boom")
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, nil)
	require.NoError(t, err)

	type jobDef struct {
		id       string
		blockers []string
		err      error
	}
	testCases := []struct {
		description string
		jobs        []jobDef
		policy      job.Policy
		expectOrder []string
		expectErr   error
		expectIs    []error
	}{
		{
			description: "blockers first",
			jobs:        []jobDef{{id: "c", blockers: []string{"b"}}, {id: "b", blockers: []string{"a"}}, {id: "a"}},
			expectOrder: []string{"a", "b", "c"},
		},
		{
			description: "strict stops at first failure",
			jobs:        []jobDef{{id: "a", err: boom}, {id: "b"}},
			policy:      job.Strict,
			expectOrder: []string{"a"},
			expectIs:    []error{boom},
		},
		{
			description: "best effort skips dependents only",
			jobs:        []jobDef{{id: "a", err: boom}, {id: "b", blockers: []string{"a"}}, {id: "c"}},
			policy:      job.BestEffort,
			expectOrder: []string{"a", "c"},
			expectIs:    []error{boom},
		},
		{
			description: "cyclic blockers",
			jobs:        []jobDef{{id: "a", blockers: []string{"b"}}, {id: "b", blockers: []string{"a"}}},
			expectIs:    []error{job.ErrUnresolved},
		},
		{
			description: "invalid jobs",
			jobs:        []jobDef{{id: "a", blockers: []string{"z"}}},
			expectIs:    []error{job.ErrInvalidJobs},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			rec := &recorder{}
			var jobs []job.Job
			for _, s := range tc.jobs {
				jobs = append(jobs, &testJob{id: s.id, blockers: s.blockers, err: s.err, recorder: rec})
			}
			mon := &countingMonitor{}
			err := New().Execute(context.Background(), mon, ectx, jobs, tc.policy)
			if len(tc.expectIs) == 0 {
				require.NoError(t, err)
			}
			for _, expect := range tc.expectIs {
				assert.ErrorIs(t, err, expect)
			}
			assert.Equal(t, tc.expectOrder, rec.order)
			assert.Equal(t, len(tc.expectOrder), mon.finished)
		})
	}
}

func TestScheduler_FailureLabel(t *testing.T) {
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, nil)
	require.NoError(t, err)
	jobs := []job.Job{&testJob{id: "a", err: errors.New("boom"), recorder: &recorder{}}}
	err = New().Execute(context.Background(), &countingMonitor{}, ectx, jobs, job.Strict)
	assert.EqualError(t, err, "job a@test failed: boom")
}

func TestScheduler_Cancelled(t *testing.T) {
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	err = New().Execute(ctx, &countingMonitor{}, ectx, []job.Job{&testJob{id: "a", recorder: rec}}, job.Strict)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.order)
}
