// Package cli implements the phaser command line.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/phaser"
	"github.com/viant/phaser/internal/ctxlog"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Profile     string
	Scripts     string
	LogLevel    string
	LogFormat   string
	Arguments   []string
	Definitions []string

	// FileSystem overrides the file system (for testing).
	FileSystem afs.Service
	// Options are appended to the service options (for testing).
	Options []phaser.Option
}

// ValidFormats defines the allowed log formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the phaser CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phaser",
		Short: "phaser - batch flow orchestrator",
		Long:  "Runs batches of flows through setup, main and cleanup phases, each flow once its blockers completed.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.LogFormat) {
				return usageError(fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Profile, "profile", "", "configuration URL (defaults apply when empty)")
	flags.StringVar(&opts.Scripts, "scripts", "", "batch script base URL, overrides the configuration")
	flags.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "log format (text|json)")
	flags.StringArrayVarP(&opts.Arguments, "argument", "A", nil, "batch argument key=value")
	flags.StringArrayVarP(&opts.Definitions, "define", "D", nil, "definition key=value (skipFlows, serializeFlows)")

	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewFlowCommand(opts))
	cmd.AddCommand(NewPhaseCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// runContext returns the command context carrying the configured logger.
func (o *RootOptions) runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctxlog.WithLogger(ctx, ctxlog.New(o.LogLevel, o.LogFormat, cmd.ErrOrStderr()))
}

func (o *RootOptions) fs() afs.Service {
	if o.FileSystem == nil {
		o.FileSystem = afs.New()
	}
	return o.FileSystem
}

func (o *RootOptions) service(ctx context.Context) (*phaser.Service, error) {
	config := phaser.DefaultConfig()
	if o.Profile != "" {
		var err error
		if config, err = phaser.LoadConfig(ctx, o.fs(), o.Profile); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load profile", err)
		}
	}
	if o.Scripts != "" {
		config.Script.BaseURL = o.Scripts
	}
	config.Monitor.Progress = true
	options := append([]phaser.Option{phaser.WithConfig(config), phaser.WithFileSystem(o.fs())}, o.Options...)
	srv, err := phaser.New(ctx, options...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create service", err)
	}
	return srv, nil
}

func (o *RootOptions) arguments() (map[string]string, error) {
	return pairs("argument", o.Arguments)
}

func (o *RootOptions) definitions() (map[string]string, error) {
	return pairs("definition", o.Definitions)
}

func pairs(kind string, values []string) (map[string]string, error) {
	ret := make(map[string]string, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, usageError(fmt.Errorf("invalid %s %q: expected key=value", kind, value))
		}
		ret[strings.TrimSpace(key)] = val
	}
	return ret, nil
}

func usageError(err error) error {
	return WrapExitError(ExitCommandError, "invalid usage", err)
}

// exactArgs wraps cobra.ExactArgs so that argument errors exit as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
