package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/typemigrate/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a typemigrate configuration file without running a migration.

Checks:
  - YAML or TOML syntax (chosen by file extension)
  - Pass and repeat counts
  - Checker command
  - Log level
  - Exclude pattern syntax`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Checker:         %s\n", strings.Join(append([]string{cfg.Checker.Command}, cfg.Checker.Args...), " "))
	fmt.Fprintf(w, "  Passes:          %d\n", cfg.Passes)
	fmt.Fprintf(w, "  Rewrite repeats: %d\n", cfg.RewriteRepeats)
	fmt.Fprintf(w, "  VCS marker:      %s\n", cfg.VCSMarker)
	fmt.Fprintf(w, "  Log level:       %s\n", cfg.LogLevel)

	if len(cfg.Exclude) > 0 {
		fmt.Fprintf(w, "\nExcluded:\n")
		for _, pattern := range cfg.Exclude {
			fmt.Fprintf(w, "  - %s\n", pattern)
		}
	}

	return nil
}
