package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/phaser/model"
	tracker "github.com/viant/phaser/progress"
)

func TestMonitor(t *testing.T) {
	ctx, tr := tracker.WithNewTracker(context.Background(), "b", nil)
	ectx, err := model.NewContext("b", "f", "e", model.PhaseMain, nil)
	require.NoError(t, err)

	mon, err := New(nil).New(ctx, ectx)
	require.NoError(t, err)
	mon.Open(3)
	mon.Started("a")
	mon.Started("b")
	mon.Started("c")
	mon.Finished("a", nil)
	mon.Finished("b", errors.New("failed"))
	assert.Equal(t, 1, tr.Snapshot().Jobs.Running)
	require.NoError(t, mon.Close())

	snapshot := tr.Snapshot()
	assert.Equal(t, tracker.Counters{Total: 3, Completed: 1, Failed: 1}, snapshot.Jobs)
	assert.Equal(t, snapshot.Jobs, snapshot.Phases["main"])
	assert.Equal(t, 1, snapshot.PhaseRuns)
}

func TestProvider_NoTracker(t *testing.T) {
	ectx, err := model.NewContext("b", "f", "e", model.PhaseMain, nil)
	require.NoError(t, err)
	mon, err := New(nil).New(context.Background(), ectx)
	require.NoError(t, err)
	mon.Open(1)
	assert.NoError(t, mon.Close())

	fallback := tracker.New("b", nil)
	mon, err = New(fallback).New(context.Background(), ectx)
	require.NoError(t, err)
	mon.Open(4)
	assert.Equal(t, 4, fallback.Snapshot().Jobs.Total)
}
