// Package event provides a monitor publishing phase and job transitions as
// events.
package event

import (
	"context"
	"io"

	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
	"github.com/viant/phaser/service/event"
)

// Monitor publishes events; publish failures are logged and never fail a job.
type Monitor struct {
	ctx       context.Context
	publisher *event.Publisher
	ectx      *model.Context
}

func (m *Monitor) Open(jobs int) {
	m.publish(&event.Event{Type: event.TypePhaseStarted, Jobs: jobs})
}

func (m *Monitor) Started(label string) {
	m.publish(&event.Event{Type: event.TypeJobStarted, Job: label})
}

func (m *Monitor) Finished(label string, err error) {
	e := &event.Event{Type: event.TypeJobFinished, Job: label}
	if err != nil {
		e.Type = event.TypeJobFailed
		e.Error = err.Error()
	}
	m.publish(e)
}

func (m *Monitor) Output() io.Writer {
	return io.Discard
}

func (m *Monitor) Close() error {
	m.publish(&event.Event{Type: event.TypePhaseFinished})
	return nil
}

func (m *Monitor) publish(e *event.Event) {
	e.BatchID = m.ectx.BatchID()
	e.FlowID = m.ectx.FlowID()
	e.ExecutionID = m.ectx.ExecutionID()
	e.Phase = m.ectx.Phase().Symbol()
	if err := m.publisher.Publish(m.ctx, e); err != nil {
		ctxlog.FromContext(m.ctx).Warn("failed to publish event", "type", e.Type, "error", err)
	}
}

// Provider creates event monitors bound to a publisher.
type Provider struct {
	publisher *event.Publisher
}

func (p *Provider) New(ctx context.Context, ectx *model.Context) (monitor.Monitor, error) {
	return &Monitor{ctx: context.WithoutCancel(ctx), publisher: p.publisher, ectx: ectx}, nil
}

func New(publisher *event.Publisher) *Provider {
	return &Provider{publisher: publisher}
}
