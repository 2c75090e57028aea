package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script-url>",
		Short: "Validate a batch script without running it",
		Long: `Load a batch script, check its flow graph and bind every execution
to a configured handler.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := rootOpts.runContext(cmd)
			arguments, err := rootOpts.arguments()
			if err != nil {
				return err
			}
			srv, err := rootOpts.service(ctx)
			if err != nil {
				return err
			}
			defer srv.Close(ctx)
			aBatch, err := srv.Validate(ctx, args[0], arguments)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "validation failed")
				return WrapExitError(ExitFailure, "invalid batch script", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %s valid: %d flow(s): %s\n", aBatch.ID, len(aBatch.Flows), strings.Join(aBatch.FlowIDs(), ", "))
			return nil
		},
	}
}
