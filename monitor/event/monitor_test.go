package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/service/event"
	"github.com/viant/phaser/service/messaging/memory"
)

func TestMonitor(t *testing.T) {
	queue := memory.NewQueue[event.Event](memory.DefaultConfig())
	publisher := event.NewPublisher(queue)
	ectx, err := model.NewContext("b", "f", "e", model.PhaseImport, nil)
	require.NoError(t, err)

	mon, err := New(publisher).New(context.Background(), ectx)
	require.NoError(t, err)
	mon.Open(2)
	mon.Started("j1")
	mon.Finished("j1", nil)
	mon.Finished("j2", errors.New("boom"))
	require.NoError(t, mon.Close())

	var types []event.Type
	for queue.Size() > 0 {
		e, err := publisher.Consume(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "import", e.Phase)
		assert.Equal(t, "f", e.FlowID)
		types = append(types, e.Type)
	}
	assert.Equal(t, []event.Type{event.TypePhaseStarted, event.TypeJobStarted, event.TypeJobFinished, event.TypeJobFailed, event.TypePhaseFinished}, types)
}
