// Package progress provides a monitor that feeds job counters to the
// progress tracker carried by the context.
package progress

import (
	"context"
	"io"
	"sync"

	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
	tracker "github.com/viant/phaser/progress"
)

// Monitor updates a progress tracker; it never blocks job execution.
type Monitor struct {
	tracker *tracker.Progress
	phase   string
	mux     sync.Mutex
	running map[string]int
	closed  bool
}

func (m *Monitor) Open(jobs int) {
	m.tracker.Update(tracker.Delta{Phase: m.phase, Jobs: tracker.Counters{Total: jobs}, Opened: 1})
}

func (m *Monitor) Started(label string) {
	m.mux.Lock()
	m.running[label]++
	m.mux.Unlock()
	m.tracker.Update(tracker.Delta{Phase: m.phase, Jobs: tracker.Counters{Running: 1}})
}

func (m *Monitor) Finished(label string, err error) {
	m.mux.Lock()
	wasRunning := m.running[label] > 0
	if wasRunning {
		m.running[label]--
	}
	m.mux.Unlock()
	jobs := tracker.Counters{Completed: 1}
	if err != nil {
		jobs = tracker.Counters{Failed: 1}
	}
	if wasRunning {
		jobs.Running = -1
	}
	m.tracker.Update(tracker.Delta{Phase: m.phase, Jobs: jobs})
}

func (m *Monitor) Output() io.Writer {
	return io.Discard
}

// Close removes jobs still reported as running from the running counter.
func (m *Monitor) Close() error {
	m.mux.Lock()
	if m.closed {
		m.mux.Unlock()
		return nil
	}
	m.closed = true
	stale := 0
	for _, count := range m.running {
		stale += count
	}
	m.mux.Unlock()
	if stale > 0 {
		m.tracker.Update(tracker.Delta{Phase: m.phase, Jobs: tracker.Counters{Running: -stale}})
	}
	return nil
}

// Provider creates progress monitors. A tracker found in the context takes
// precedence over the provider fallback tracker.
type Provider struct {
	fallback *tracker.Progress
}

func (p *Provider) New(ctx context.Context, ectx *model.Context) (monitor.Monitor, error) {
	tr, ok := tracker.FromContext(ctx)
	if !ok {
		tr = p.fallback
	}
	if tr == nil {
		return monitor.Nop(), nil
	}
	return &Monitor{tracker: tr, phase: ectx.Phase().Symbol(), running: map[string]int{}}, nil
}

// New returns a provider; fallback may be nil.
func New(fallback *tracker.Progress) *Provider {
	return &Provider{fallback: fallback}
}
