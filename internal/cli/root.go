// Package cli provides the command-line interface for typemigrate.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/typemigrate/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	ctx, stop := withInterrupt(context.Background())
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

// withInterrupt returns a context that is cancelled on the first interrupt
// signal. A cancelled run finishes the file it is writing and stops.
func withInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, interruptSignals...)
}

// NewRootCommand creates the root cobra command. Without a subcommand it
// behaves like run.
func NewRootCommand() *cobra.Command {
	runCmd := commands.NewRunCommand()

	rootCmd := &cobra.Command{
		Use:   "typemigrate",
		Short: "Migrate Rust sources to new generated types, driven by compiler errors",
		Long: `typemigrate rewrites Rust source lines that the type checker rejects after a
change to generated types. It strips .pack(), .into() and .unpack() calls and
replaces Default with the type the compiler asked for.

Feed it diagnostics on stdin, or let it run the checker with --cargo:
  cargo check --tests --message-format json | typemigrate
  typemigrate --cargo -n 10

Files are rewritten in place, so the working directory must be under version
control.`,
		Args:          cobra.NoArgs,
		RunE:          runCmd.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Flags().AddFlagSet(runCmd.Flags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
