package event

import (
	"context"

	"github.com/viant/phaser/internal/clock"
	"github.com/viant/phaser/service/messaging"
)

type Publisher struct {
	queue messaging.Queue[Event]
}

func NewPublisher(queue messaging.Queue[Event]) *Publisher {
	return &Publisher{queue: queue}
}

// Publish stamps the event creation time and publishes it.
func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = clock.Now()
	}
	return p.queue.Publish(ctx, event)
}

// Consume returns the next event; it returns nil when a polling queue is empty.
func (p *Publisher) Consume(ctx context.Context) (*Event, error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
