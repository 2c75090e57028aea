// Package logging provides a monitor writing phase progress to slog.
package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/phaser/internal/clock"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/monitor"
)

type Monitor struct {
	logger  *slog.Logger
	started time.Time
	mux     sync.Mutex
	total   int
	done    int
	failed  int
	output  *lineWriter
}

func (m *Monitor) Open(jobs int) {
	m.mux.Lock()
	m.total = jobs
	m.mux.Unlock()
	m.logger.Info("phase started", "jobs", jobs)
}

func (m *Monitor) Started(label string) {
	m.logger.Debug("job started", "job", label)
}

func (m *Monitor) Finished(label string, err error) {
	m.mux.Lock()
	m.done++
	if err != nil {
		m.failed++
	}
	done, total := m.done, m.total
	m.mux.Unlock()
	if err != nil {
		m.logger.Warn("job failed", "job", label, "error", err, "done", done, "total", total)
		return
	}
	m.logger.Info("job completed", "job", label, "done", done, "total", total)
}

func (m *Monitor) Output() io.Writer {
	return m.output
}

func (m *Monitor) Close() error {
	m.output.flush()
	m.mux.Lock()
	done, failed := m.done, m.failed
	m.mux.Unlock()
	m.logger.Info("phase finished", "done", done, "failed", failed, "elapsed", clock.Since(m.started))
	return nil
}

// Provider creates logging monitors from the logger found in the context.
type Provider struct{}

func (p *Provider) New(ctx context.Context, ectx *model.Context) (monitor.Monitor, error) {
	logger := ctxlog.FromContext(ctx).With(
		"batch", ectx.BatchID(),
		"flow", ectx.FlowID(),
		"execution", ectx.ExecutionID(),
		"phase", ectx.Phase().Symbol())
	return &Monitor{logger: logger, started: clock.Now(), output: &lineWriter{logger: logger}}, nil
}

// New returns a logging monitor provider.
func New() *Provider {
	return &Provider{}
}

// lineWriter logs every complete line written to it.
type lineWriter struct {
	logger *slog.Logger
	mux    sync.Mutex
	buf    bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mux.Lock()
	defer w.mux.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			w.buf.Write(line)
			break
		}
		w.logger.Info("output", "line", string(bytes.TrimRight(line, "\r\n")))
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.buf.Len() > 0 {
		w.logger.Info("output", "line", w.buf.String())
		w.buf.Reset()
	}
}
