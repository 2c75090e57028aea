package monitor

import (
	"context"
	"errors"
	"io"

	"github.com/viant/phaser/model"
)

type multi []Monitor

func (m multi) Open(jobs int) {
	for _, item := range m {
		item.Open(jobs)
	}
}

func (m multi) Started(label string) {
	for _, item := range m {
		item.Started(label)
	}
}

func (m multi) Finished(label string, err error) {
	for _, item := range m {
		item.Finished(label, err)
	}
}

func (m multi) Output() io.Writer {
	writers := make([]io.Writer, 0, len(m))
	for _, item := range m {
		writers = append(writers, item.Output())
	}
	return io.MultiWriter(writers...)
}

func (m multi) Close() error {
	var errs []error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type multiProvider []Provider

// Multi returns a provider fanning every event out to all providers. Monitors
// already created are closed when a later provider fails.
func Multi(providers ...Provider) Provider {
	switch len(providers) {
	case 0:
		return NopProvider()
	case 1:
		return providers[0]
	}
	return multiProvider(providers)
}

func (p multiProvider) New(ctx context.Context, ectx *model.Context) (Monitor, error) {
	ret := make(multi, 0, len(p))
	for _, provider := range p {
		item, err := provider.New(ctx, ectx)
		if err != nil {
			_ = ret.Close()
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, nil
}
