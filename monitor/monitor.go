// Package monitor defines the progress sink a phase reports to while its jobs run.
package monitor

import (
	"context"
	"io"

	"github.com/viant/phaser/model"
)

// Monitor receives progress of a single phase execution.
type Monitor interface {
	// Open declares the number of jobs the phase will report.
	Open(jobs int)
	// Started reports a job start.
	Started(label string)
	// Finished reports a job end; err is nil on success.
	Finished(label string, err error)
	// Output returns a writer for handler output.
	Output() io.Writer
	// Close releases the monitor.
	Close() error
}

// Provider creates a monitor per phase execution.
type Provider interface {
	New(ctx context.Context, ectx *model.Context) (Monitor, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, ectx *model.Context) (Monitor, error)

func (f ProviderFunc) New(ctx context.Context, ectx *model.Context) (Monitor, error) {
	return f(ctx, ectx)
}
