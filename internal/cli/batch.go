package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/progress"
	"github.com/viant/phaser/runtime/task"
)

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <batch-id>",
		Short: "Run every flow of a batch",
		Long: `Run every flow of a batch, each flow once its blockers completed.

Example:
  phaser batch nightly -A date=2024-01-01
  phaser batch nightly -D skipFlows=extract -D serializeFlows=true`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID := args[0]
			return execute(rootOpts, cmd, func(ctx context.Context, aTask *task.Task) error {
				ctx, tracker := progress.WithNewTracker(ctx, batchID, nil)
				err := aTask.ExecuteBatch(ctx, batchID)
				snapshot := tracker.Snapshot()
				ctxlog.FromContext(ctx).Info("batch jobs", "batch", batchID, "total", snapshot.Jobs.Total, "completed", snapshot.Jobs.Completed, "failed", snapshot.Jobs.Failed, "phaseRuns", snapshot.PhaseRuns)
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "batch %s completed\n", batchID)
				}
				return err
			})
		},
	}
}
