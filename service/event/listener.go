package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/viant/phaser/internal/ctxlog"
)

// Listener delivers consumed events to a handler until stopped.
type Listener struct {
	publisher *Publisher
	handler   func(*Event)
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

func NewListener(publisher *Publisher, handler func(*Event)) *Listener {
	return &Listener{publisher: publisher, handler: handler, interval: 50 * time.Millisecond, done: make(chan struct{})}
}

// Start consumes in a goroutine bound to ctx.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(ctx)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				if !errors.Is(err, context.Canceled) {
					ctxlog.FromContext(ctx).Warn("failed to consume event", "error", err)
				}
				l.pause(ctx)
			case event == nil:
				l.pause(ctx)
			default:
				l.handler(event)
			}
		}
	}()
}

func (l *Listener) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(l.interval):
	}
}

// Stop cancels consumption and waits for the goroutine to exit.
func (l *Listener) Stop() {
	l.once.Do(func() {
		if l.cancel == nil {
			close(l.done)
			return
		}
		l.cancel()
	})
	<-l.done
}
