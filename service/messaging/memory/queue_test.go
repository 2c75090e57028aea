package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/phaser/service/messaging"
)

type payload struct {
	ID    string
	Count int
}

func TestQueue(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &payload{ID: "p1", Count: 1}))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", message.T().ID)
	assert.Equal(t, 0, queue.Size())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[payload](config)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &payload{ID: "retry"}))
	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, message.Nack(errors.New("fail")))

	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "retry", message.T().ID)
	require.NoError(t, message.Nack(errors.New("fail again")))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.Dropped())
}

func TestQueue_NonBlocking(t *testing.T) {
	queue := NewQueue[payload](Config{QueueBuffer: 1, NonBlocking: true})
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &payload{ID: "1"}))
	assert.ErrorIs(t, queue.Publish(ctx, &payload{ID: "2"}), messaging.ErrQueueFull)
}

func TestQueue_Concurrency(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	producers, perProducer := 8, 10

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &payload{ID: fmt.Sprintf("%d-%d", producer, j)}))
			}
		}(i)
	}
	seen := map[string]bool{}
	for i := 0; i < producers*perProducer; i++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		seen[message.T().ID] = true
		assert.NoError(t, message.Ack())
	}
	wg.Wait()
	assert.Len(t, seen, producers*perProducer)
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &payload{ID: "x"}))

	timeout, cancelTimeout := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
