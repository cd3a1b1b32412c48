package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/typemigrate/internal/checker"
	"github.com/ccollicutt/typemigrate/internal/workspace"
	"github.com/ccollicutt/typemigrate/pkg/config"
	"github.com/ccollicutt/typemigrate/pkg/migrate"
	"github.com/ccollicutt/typemigrate/pkg/output"
	"github.com/ccollicutt/typemigrate/pkg/rewrite"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rewrite source lines named by type checker diagnostics",
		Long: `Run the migration passes over the working tree.

Each pass reads one complete diagnostic stream, keeps the errors whose source
line calls .pack(), .into() or .unpack() or uses Default, and rewrites those
lines in place. The tree is checked again before the next pass.

Diagnostics come from stdin unless --cargo is given:
  cargo check --tests --message-format json | typemigrate run
  typemigrate run --cargo -n 5

The working directory must be under version control.

Exit codes:
  0 - Migration finished, or there was nothing to do
  2 - Configuration or runtime error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, args, opts)
		},
	}

	opts.Bind(cmd.Flags())

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string, opts *MigrateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

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

	if ok, err := requireVCS(cmd, cfg, formatOpts); !ok {
		return err
	}

	logger, err := newLogger(stderr, cfg.LogLevel, formatOpts.Color)
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

	result, err := m.Run(ctx)
	if errors.Is(err, migrate.ErrNoTargets) {
		output.Warn(stderr, formatOpts, "%v", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if err := formatter.Format(ctx, output.NewReport(result, opts.Config), stdout); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}

// requireVCS reports whether the run may touch files. A missing VCS marker
// is an advisory, not an error.
func requireVCS(cmd *cobra.Command, cfg *config.Config, formatOpts output.FormatOptions) (bool, error) {
	dir, err := workDir(cfg)
	if err != nil {
		return false, err
	}
	err = workspace.RequireVCS(dir, cfg.VCSMarker)
	if errors.Is(err, workspace.ErrNoVCS) {
		output.Warn(cmd.ErrOrStderr(), formatOpts, "no version control found in %s (missing %s); files are rewritten in place, so commit your work first", dir, cfg.VCSMarker)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func newMigrator(cmd *cobra.Command, opts *MigrateOptions, cfg *config.Config, logger *zap.Logger) (*migrate.Migrator, error) {
	var c checker.Checker
	if opts.Cargo {
		c = checker.NewCommand(cfg.Checker.Command, cfg.Checker.Args,
			checker.WithDir(cfg.Checker.Dir),
			checker.WithEnv(cfg.Checker.Env...),
			checker.WithLogger(logger.Named("checker")),
		)
	} else {
		c = checker.NewStream("stdin", cmd.InOrStdin())
	}

	rw := rewrite.New(
		rewrite.WithBaseDir(cfg.Checker.Dir),
		rewrite.WithLogger(logger.Named("rewrite")),
	)

	m, err := migrate.New(c,
		migrate.WithPasses(cfg.Passes),
		migrate.WithRewriteRepeats(cfg.RewriteRepeats),
		migrate.WithExclude(cfg.Exclude),
		migrate.WithRewriter(rw),
		migrate.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
