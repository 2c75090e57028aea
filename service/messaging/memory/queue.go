package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/phaser/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	QueueBuffer int
	// NonBlocking makes Publish fail with messaging.ErrQueueFull instead of waiting.
	NonBlocking bool
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		QueueBuffer: 1024,
	}
}

// Message implements messaging.Message for the in-memory queue
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	retries   int
	mu        sync.Mutex
	processed bool
}

// ID returns the message id.
func (m *Message[T]) ID() string {
	return m.id
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	return m.complete()
}

// Nack requeues the message after the retry delay until MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	if err := m.complete(); err != nil {
		return err
	}
	if m.retries >= m.queue.config.MaxRetries {
		m.queue.dropped(m)
		return nil
	}
	retry := &Message[T]{id: m.id, payload: m.payload, queue: m.queue, retries: m.retries + 1}
	time.AfterFunc(m.queue.config.RetryDelay, func() {
		_ = m.queue.enqueue(context.Background(), retry, false)
	})
	return nil
}

func (m *Message[T]) complete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
	mu       sync.Mutex
	dropCnt  int
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.enqueue(ctx, &Message[T]{id: uuid.New().String(), payload: *t, queue: q}, q.config.NonBlocking)
}

func (q *Queue[T]) enqueue(ctx context.Context, msg *Message[T], nonBlocking bool) error {
	if nonBlocking {
		select {
		case q.messages <- msg:
			return nil
		default:
			return messaging.ErrQueueFull
		}
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume retrieves a single item from the queue, waiting until one is available.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue[T]) dropped(*Message[T]) {
	q.mu.Lock()
	q.dropCnt++
	q.mu.Unlock()
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// Dropped returns the number of messages discarded after exhausting retries.
func (q *Queue[T]) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropCnt
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
