package fs

import (
	"context"
	"errors"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type payload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestQueue(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	config := Config{BaseURL: t.TempDir(), MaxRetries: 1, KeepCompleted: true}
	queue, err := NewQueue[payload](ctx, fs, config)
	require.NoError(t, err)

	for _, dir := range []string{queue.pendingDir, queue.processingDir, queue.completedDir, queue.failedDir} {
		exists, err := fs.Exists(ctx, dir)
		assert.NoError(t, err)
		assert.True(t, exists, dir)
	}

	for i, id := range []string{"first", "second"} {
		require.NoError(t, queue.Publish(ctx, &payload{ID: id, Count: i}))
	}

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, message)
	assert.Equal(t, "first", message.T().ID)
	require.NoError(t, message.Ack())
	assert.Error(t, message.Ack())

	completed := path.Join(queue.completedDir, message.(*Message[payload]).name)
	exists, err := fs.Exists(ctx, completed)
	assert.NoError(t, err)
	assert.True(t, exists)

	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, message)
	assert.Equal(t, "second", message.T().ID)
	require.NoError(t, message.Nack(errors.New("retry")))

	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, message)
	assert.Equal(t, 1, message.(*Message[payload]).Retries)
	require.NoError(t, message.Nack(errors.New("give up")))

	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Nil(t, message)
}

func TestNewQueue_EmptyBase(t *testing.T) {
	_, err := NewQueue[payload](context.Background(), afs.New(), Config{})
	assert.Error(t, err)
}
