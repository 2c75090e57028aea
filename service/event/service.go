package event

import (
	"context"

	"github.com/viant/afs"
	"github.com/viant/phaser/service/messaging"
	"github.com/viant/phaser/service/messaging/fs"
	"github.com/viant/phaser/service/messaging/memory"
)

// Service owns the event queue and its publisher.
type Service struct {
	vendor    messaging.Vendor
	fs        afs.Service
	fsConfig  *fs.Config
	memConfig *memory.Config
	queue     messaging.Queue[Event]
	publisher *Publisher
}

// Publisher returns the event publisher.
func (s *Service) Publisher() *Publisher {
	return s.publisher
}

// Listen starts a listener delivering events to handler.
func (s *Service) Listen(ctx context.Context, handler func(*Event)) *Listener {
	listener := NewListener(s.publisher, handler)
	listener.Start(ctx)
	return listener
}

func New(ctx context.Context, vendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{vendor: vendor}
	for _, opt := range opts {
		opt(ret)
	}
	if vendor == "" {
		vendor = messaging.VendorMemory
	}
	parsed, err := messaging.ParseVendor(string(vendor))
	if err != nil {
		return nil, err
	}
	ret.vendor = parsed
	switch parsed {
	case messaging.VendorMemory:
		config := memory.DefaultConfig()
		if ret.memConfig != nil {
			config = *ret.memConfig
		}
		ret.queue = memory.NewQueue[Event](config)
	case messaging.VendorFS:
		config := fs.DefaultConfig()
		if ret.fsConfig != nil {
			config = *ret.fsConfig
		}
		if ret.fs == nil {
			ret.fs = afs.New()
		}
		queue, err := fs.NewQueue[Event](ctx, ret.fs, config)
		if err != nil {
			return nil, err
		}
		ret.queue = queue
	}
	ret.publisher = NewPublisher(ret.queue)
	return ret, nil
}
