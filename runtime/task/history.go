package task

import (
	"context"

	"github.com/viant/phaser/internal/clock"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/runtime/batch"
	"github.com/viant/phaser/service/dao"
)

// History stores flow run records.
type History = dao.Service[string, model.Run]

// recorder saves a run record for every flow execution it runs.
type recorder struct {
	runner  batch.FlowRunner
	history History
}

func (r *recorder) Execute(ctx context.Context, batchID string, flow *model.Flow, executionID string, args map[string]string) error {
	started := clock.Now()
	err := r.runner.Execute(ctx, batchID, flow, executionID, args)
	run := model.NewRun(batchID, flow.ID, executionID, started, clock.Now(), err)
	if saveErr := r.history.Save(context.WithoutCancel(ctx), run); saveErr != nil {
		ctxlog.FromContext(ctx).Warn("failed to save run", "run", run.ID, "error", saveErr)
	}
	return err
}
