package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/viant/phaser/internal/ctxlog"
	"github.com/viant/phaser/runtime/task"
)

// execute builds the service and a task, runs fn and maps failures to exit codes.
func execute(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, aTask *task.Task) error) error {
	ctx := opts.runContext(cmd)
	args, err := opts.arguments()
	if err != nil {
		return err
	}
	definitions, err := opts.definitions()
	if err != nil {
		return err
	}
	srv, err := opts.service(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := srv.Close(context.WithoutCancel(ctx)); closeErr != nil {
			ctxlog.FromContext(ctx).Warn("failed to close service", "error", closeErr)
		}
	}()
	aTask, err := srv.Task(args, definitions)
	if err != nil {
		return usageError(err)
	}
	if err = fn(ctx, aTask); err != nil {
		if errors.Is(err, context.Canceled) {
			return WrapExitError(ExitFailure, "interrupted", err)
		}
		return WrapExitError(ExitFailure, "execution failed", err)
	}
	return nil
}
