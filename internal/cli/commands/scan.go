package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/typemigrate/pkg/output"
)

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the lines a migration pass would rewrite",
		Long: `Read one diagnostic stream and list every line a pass would rewrite,
with the pattern it matched and, for Default lines, the type that would be
filled in. No file is modified and no version control is required.

Examples:
  cargo check --tests --message-format json | typemigrate scan
  typemigrate scan --cargo -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}

	opts.Bind(cmd.Flags())
	_ = cmd.Flags().MarkHidden("number")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string, opts *MigrateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout := cmd.OutOrStdout()

	formatOpts, err := opts.formatOptions(stdout)
	if err != nil {
		return err
	}
	formatter, err := output.New(opts.Output, formatOpts)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig(ctx, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, formatOpts.Color)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	m, err := newMigrator(cmd, opts, cfg, logger)
	if err != nil {
		return err
	}

	targets, err := m.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	logger.Debug("scan complete", zap.Int("targets", len(targets)))

	report := output.NewScanReport(checkerName(opts, cfg.Checker.Command), targets, opts.Config)
	if err := formatter.Format(ctx, report, stdout); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}

func checkerName(opts *MigrateOptions, command string) string {
	if opts.Cargo {
		return command
	}
	return "stdin"
}
