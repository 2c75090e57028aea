package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/gosh/runner"
	"github.com/viant/phaser/model"
)

type fakeSession struct {
	mux    sync.Mutex
	lines  []string
	status int
	stdout string
	err    error
	closed bool
}

func (s *fakeSession) Run(_ context.Context, command string, _ ...runner.Option) (string, int, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.lines = append(s.lines, command)
	return s.stdout, s.status, s.err
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type bufferMonitor struct {
	buffer bytes.Buffer
}

func (m *bufferMonitor) Open(int)               {}
func (m *bufferMonitor) Started(string)         {}
func (m *bufferMonitor) Finished(string, error) {}
func (m *bufferMonitor) Output() io.Writer      { return &m.buffer }
func (m *bufferMonitor) Close() error           { return nil }

func newContext(t *testing.T) *model.Context {
	ectx, err := model.NewContext("b1", "f1", "x1", model.PhaseMain, map[string]string{"date": "2024"})
	require.NoError(t, err)
	return ectx
}

func TestHandler_Execute(t *testing.T) {
	testCases := []struct {
		description string
		config      *Config
		execution   *model.Execution
		status      int
		expectLine  string
		expectErr   bool
		expectExit  bool
	}{
		{
			description: "prefix and env",
			config:      &Config{Prefix: []string{"sudo"}},
			execution:   &model.Execution{ID: "e1", Command: []string{"run.sh", "a b"}, Env: map[string]string{"K": "v"}},
			expectLine:  "BATCH_ARGUMENTS='date=2024' BATCH_ID=b1 EXECUTION_ID=x1 FLOW_ID=f1 K=v PHASE=main sudo run.sh 'a b'",
		},
		{
			description: "handler env below execution env",
			config:      &Config{Env: map[string]string{"K": "base", "PHASE": "mine", "Z": "1"}},
			execution:   &model.Execution{ID: "e1", Command: []string{"run.sh"}, Env: map[string]string{"K": "v"}},
			expectLine:  "BATCH_ARGUMENTS='date=2024' BATCH_ID=b1 EXECUTION_ID=x1 FLOW_ID=f1 K=v PHASE=main Z=1 run.sh",
		},
		{
			description: "working directory",
			config:      &Config{Directory: "/tmp/work dir"},
			execution:   &model.Execution{ID: "e1", Command: []string{"ls"}},
			expectLine:  "cd '/tmp/work dir' && BATCH_ARGUMENTS='date=2024' BATCH_ID=b1 EXECUTION_ID=x1 FLOW_ID=f1 PHASE=main ls",
		},
		{
			description: "non zero exit",
			config:      &Config{},
			execution:   &model.Execution{ID: "e1", Command: []string{"false"}},
			status:      3,
			expectErr:   true,
			expectExit:  true,
		},
		{
			description: "empty command",
			config:      &Config{},
			execution:   &model.Execution{ID: "e1"},
			expectErr:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			fake := &fakeSession{status: tc.status, stdout: "done"}
			h := New("shell", tc.config, WithDialer(func(ctx context.Context, config *Config) (Session, error) {
				return fake, nil
			}))
			mon := &bufferMonitor{}
			err := h.Execute(context.Background(), mon, newContext(t), tc.execution)
			if tc.expectErr {
				require.Error(t, err)
				var exitErr *ExitError
				assert.Equal(t, tc.expectExit, errors.As(err, &exitErr))
				if tc.expectExit {
					assert.Equal(t, tc.status, exitErr.Status)
					assert.Equal(t, "e1", exitErr.Label)
				}
				return
			}
			require.NoError(t, err)
			require.Len(t, fake.lines, 1)
			assert.Equal(t, tc.expectLine, fake.lines[0])
			assert.Equal(t, "done\n", mon.buffer.String())
		})
	}
}

func TestHandler_Lifecycle(t *testing.T) {
	fake := &fakeSession{}
	dials := 0
	h := New("shell", &Config{Cleanup: []string{"rm", "-rf", "tmp"}}, WithDialer(func(ctx context.Context, config *Config) (Session, error) {
		dials++
		return fake, nil
	}))
	ectx := newContext(t)
	require.NoError(t, h.Setup(context.Background(), nil, ectx))
	assert.Empty(t, fake.lines)
	require.NoError(t, h.Cleanup(context.Background(), nil, ectx))
	require.NoError(t, h.Cleanup(context.Background(), nil, ectx))
	assert.Len(t, fake.lines, 2)
	assert.Equal(t, 1, dials)
	require.NoError(t, h.Close(context.Background()))
	assert.True(t, fake.closed)
}

// gatedSession blocks each Run until every expected caller has arrived.
type gatedSession struct {
	arrived *sync.WaitGroup
	gate    chan struct{}
	mux     *sync.Mutex
	active  *int
	peak    *int
}

func (s *gatedSession) Run(_ context.Context, _ string, _ ...runner.Option) (string, int, error) {
	s.mux.Lock()
	*s.active++
	if *s.active > *s.peak {
		*s.peak = *s.active
	}
	s.mux.Unlock()
	defer func() {
		s.mux.Lock()
		*s.active--
		s.mux.Unlock()
	}()
	if s.arrived == nil {
		time.Sleep(10 * time.Millisecond)
		return "", 0, nil
	}
	s.arrived.Done()
	select {
	case <-s.gate:
		return "", 0, nil
	case <-time.After(2 * time.Second):
		return "", 0, errors.New("commands did not overlap")
	}
}

func (s *gatedSession) Close() error { return nil }

func TestHandler_ConcurrentRuns(t *testing.T) {
	testCases := []struct {
		description string
		maxSessions int
		flows       int
		gated       bool
		expectPeak  int
		expectDials int
	}{
		{description: "unbounded sessions overlap", flows: 4, gated: true, expectPeak: 4, expectDials: 4},
		{description: "max sessions serializes", maxSessions: 1, flows: 3, expectPeak: 1, expectDials: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			var mux sync.Mutex
			active, peak, dials := 0, 0, 0
			var arrived *sync.WaitGroup
			gate := make(chan struct{})
			if tc.gated {
				arrived = &sync.WaitGroup{}
				arrived.Add(tc.flows)
				go func() {
					arrived.Wait()
					close(gate)
				}()
			}
			h := New("shell", &Config{MaxSessions: tc.maxSessions}, WithDialer(func(ctx context.Context, config *Config) (Session, error) {
				mux.Lock()
				dials++
				mux.Unlock()
				return &gatedSession{arrived: arrived, gate: gate, mux: &mux, active: &active, peak: &peak}, nil
			}))
			errs := make(chan error, tc.flows)
			for i := 0; i < tc.flows; i++ {
				flowID := string(rune('a' + i))
				go func() {
					ectx, err := model.NewContext("b1", flowID, "x1", model.PhaseMain, nil)
					if err == nil {
						err = h.Execute(context.Background(), nil, ectx, &model.Execution{ID: "e1", Command: []string{"run.sh"}})
					}
					errs <- err
				}()
			}
			for i := 0; i < tc.flows; i++ {
				assert.NoError(t, <-errs)
			}
			assert.Equal(t, tc.expectPeak, peak)
			assert.Equal(t, tc.expectDials, dials)
			require.NoError(t, h.Close(context.Background()))
		})
	}
}

func TestConfig_IsLocal(t *testing.T) {
	testCases := []struct {
		description string
		host        string
		expect      bool
	}{
		{description: "default", host: "", expect: true},
		{description: "plain localhost", host: "localhost", expect: true},
		{description: "remote url", host: "ssh://build01:2222", expect: false},
		{description: "remote host", host: "build01", expect: false},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config := &Config{Host: tc.host}
			config.Init()
			assert.Equal(t, tc.expect, config.IsLocal())
		})
	}
}

func TestSSHAddress(t *testing.T) {
	assert.Equal(t, "build01:22", sshAddress("build01"))
	assert.Equal(t, "build01:2222", sshAddress("build01:2222"))
}
