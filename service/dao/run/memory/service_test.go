package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := New()
	require.NoError(t, srv.Save(ctx, model.NewRun("b1", "extract", "e1", started, started.Add(time.Second), nil)))
	require.NoError(t, srv.Save(ctx, model.NewRun("b1", "load", "e2", started, started.Add(time.Minute), errors.New("boom"))))

	loaded, err := srv.Load(ctx, model.RunID("b1", "load", "e2"))
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, loaded.Status)
	assert.Equal(t, "boom", loaded.Error)
	assert.Equal(t, time.Minute, loaded.Elapsed())

	loaded.Status = model.RunSucceeded
	again, err := srv.Load(ctx, loaded.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, again.Status)

	var testCases = []struct {
		description string
		parameters  []*dao.Parameter
		expect      []string
	}{
		{description: "all", expect: []string{"b1/extract/e1", "b1/load/e2"}},
		{description: "by status", parameters: []*dao.Parameter{dao.NewParameter("Status", string(model.RunSucceeded))}, expect: []string{"b1/extract/e1"}},
		{description: "by flow", parameters: []*dao.Parameter{dao.NewParameter("FlowID", "load")}, expect: []string{"b1/load/e2"}},
		{description: "by batch", parameters: []*dao.Parameter{dao.NewParameter("BatchID", "b2")}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			runs, err := srv.List(ctx, testCase.parameters...)
			require.NoError(t, err)
			var ids []string
			for _, run := range runs {
				ids = append(ids, run.ID)
			}
			assert.Equal(t, testCase.expect, ids)
		})
	}

	require.NoError(t, srv.Delete(ctx, model.RunID("b1", "extract", "e1")))
	assert.Equal(t, 1, srv.Len())
	assert.ErrorIs(t, srv.Delete(ctx, "missing"), dao.ErrNotFound)
	_, err = srv.Load(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, srv.Save(ctx, &model.Run{}), dao.ErrInvalidID)
}
