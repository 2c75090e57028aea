package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/phaser/model"
	"github.com/viant/phaser/runtime/task"
)

// PhaseOptions holds flags for the phase command.
type PhaseOptions struct {
	*RootOptions
	ExecutionID string
}

// NewPhaseCommand creates the phase command.
func NewPhaseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PhaseOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "phase <batch-id> <flow-id> <phase>",
		Short: "Run a single phase of one flow",
		Long: `Run a single phase of one flow for an existing execution id.

Phases: setup, initialize, import, prologue, main, epilogue, export, finalize, cleanup.`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := model.ParsePhase(args[2])
			if err != nil {
				return usageError(err)
			}
			if opts.ExecutionID == "" {
				return usageError(fmt.Errorf("--execution is required"))
			}
			return execute(opts.RootOptions, cmd, func(ctx context.Context, aTask *task.Task) error {
				if err := aTask.ExecutePhase(ctx, args[0], args[1], opts.ExecutionID, phase); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "phase %s of %s/%s completed\n", phase.Symbol(), args[0], args[1])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.ExecutionID, "execution", "", "execution id")
	return cmd
}
