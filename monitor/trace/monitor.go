// Package trace provides a monitor recording one OpenTelemetry span per phase
// execution with an event per job.
package trace

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
	"github.com/viant/phaser/tracing"
)

type Monitor struct {
	span   *tracing.Span
	mux    sync.Mutex
	failed []string
	once   sync.Once
}

func (m *Monitor) Open(jobs int) {
	m.span.Opened(jobs)
}

func (m *Monitor) Started(label string) {
	m.span.Event("job.started", label, nil)
}

func (m *Monitor) Finished(label string, err error) {
	if err != nil {
		m.mux.Lock()
		m.failed = append(m.failed, label)
		m.mux.Unlock()
	}
	m.span.Event("job.finished", label, err)
}

func (m *Monitor) Output() io.Writer {
	return io.Discard
}

// Close ends the span; it fails the span when any job failed.
func (m *Monitor) Close() error {
	m.once.Do(func() {
		m.mux.Lock()
		var err error
		if len(m.failed) > 0 {
			err = fmt.Errorf("jobs failed: %v", m.failed)
		}
		m.mux.Unlock()
		m.span.End(err)
	})
	return nil
}

// Provider creates span-backed monitors.
type Provider struct {
	tracer *tracing.Tracer
}

func (p *Provider) New(ctx context.Context, ectx *model.Context) (monitor.Monitor, error) {
	_, span := p.tracer.StartPhase(ctx, ectx)
	return &Monitor{span: span}, nil
}

// New returns a monitor provider starting spans on tracer.
func New(tracer *tracing.Tracer) *Provider {
	return &Provider{tracer: tracer}
}
