package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/phaser/service/dao"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Flow   string
	Status []string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "history <batch-id>",
		Short: "List recorded flow runs of a batch",
		Long: `List the flow runs recorded by the configured run history, oldest
first. The profile must enable history.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.runContext(cmd)
			srv, err := opts.service(ctx)
			if err != nil {
				return err
			}
			defer srv.Close(ctx)
			history := srv.History()
			if history == nil {
				return WrapExitError(ExitCommandError, "run history is disabled", nil)
			}
			parameters := []*dao.Parameter{dao.NewParameter("BatchID", args[0])}
			if opts.Flow != "" {
				parameters = append(parameters, dao.NewParameter("FlowID", opts.Flow))
			}
			if len(opts.Status) > 0 {
				parameters = append(parameters, dao.NewParameter("Status", opts.Status...))
			}
			runs, err := history.List(ctx, parameters...)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list runs", err)
			}
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "FLOW\tEXECUTION\tSTATUS\tSTARTED\tELAPSED")
			for _, run := range runs {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", run.FlowID, run.ExecutionID, run.Status,
					run.StartedAt.Format(time.RFC3339), run.Elapsed().Round(time.Millisecond))
			}
			return writer.Flush()
		},
	}
	cmd.Flags().StringVar(&opts.Flow, "flow", "", "only runs of this flow")
	cmd.Flags().StringSliceVar(&opts.Status, "status", nil, "only runs with these statuses")
	return cmd
}
