package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/phaser/internal/idgen"
	"github.com/viant/phaser/runtime/task"
)

// FlowOptions holds flags for the flow command.
type FlowOptions struct {
	*RootOptions
	ExecutionID string
}

// NewFlowCommand creates the flow command.
func NewFlowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FlowOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "flow <batch-id> <flow-id>",
		Short: "Run every phase of one flow",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			executionID := opts.ExecutionID
			if executionID == "" {
				executionID = idgen.New()
			}
			return execute(opts.RootOptions, cmd, func(ctx context.Context, aTask *task.Task) error {
				if err := aTask.ExecuteFlow(ctx, args[0], args[1], executionID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "flow %s/%s completed (execution %s)\n", args[0], args[1], executionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.ExecutionID, "execution", "", "execution id (generated when empty)")
	return cmd
}
