package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/typemigrate/internal/checker"
	"github.com/ccollicutt/typemigrate/internal/workspace"
	"github.com/ccollicutt/typemigrate/pkg/config"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Config  string
	Verbose bool
}

// CheckResult represents the result of a single setup check
type CheckResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose common setup issues",
		Long: `Diagnose common setup issues before a migration.

This command checks:
- Config file syntax and structure (with --config)
- The working directory is under version control
- The checker binary can be found

Example:
  typemigrate diagnose
  typemigrate diagnose --config typemigrate.yaml -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "Configuration file (YAML or TOML)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, opts *DiagnoseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := []CheckResult{}

	// 1. Configuration
	cfg, result := checkConfig(ctx, opts.Config)
	results = append(results, result)
	if result.Status == "error" {
		printChecks(w, results, opts)
		return nil
	}

	// 2. Version control
	results = append(results, checkVCS(cfg))

	// 3. Checker binary
	results = append(results, checkChecker(cfg))

	printChecks(w, results, opts)
	return nil
}

func checkConfig(ctx context.Context, path string) (*config.Config, CheckResult) {
	result := CheckResult{
		Check: "Configuration",
	}

	if path == "" {
		cfg, err := config.FromEnvironment()
		if err != nil {
			result.Status = "error"
			result.Message = fmt.Sprintf("Invalid environment: %v", err)
			result.Suggests = []string{
				fmt.Sprintf("Check %s, %s and %s", config.EnvChecker, config.EnvPasses, config.EnvLogLevel),
			}
			return nil, result
		}
		result.Status = "ok"
		result.Message = "No config file, using defaults"
		result.Details = configDetails(cfg)
		return cfg, result
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return nil, result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return nil, result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return nil, result
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "parsing") {
			result.Suggests = []string{
				"Files ending in .toml are read as TOML, everything else as YAML",
				"Check indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Loaded %s", path)
	result.Details = configDetails(cfg)
	return cfg, result
}

func configDetails(cfg *config.Config) []string {
	details := []string{
		fmt.Sprintf("Passes: %d", cfg.Passes),
		fmt.Sprintf("Rewrite repeats: %d", cfg.RewriteRepeats),
	}
	for _, pattern := range cfg.Exclude {
		details = append(details, fmt.Sprintf("Exclude: %s", pattern))
	}
	return details
}

func checkVCS(cfg *config.Config) CheckResult {
	result := CheckResult{
		Check: "Version Control",
	}

	dir, err := workDir(cfg)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot determine working directory: %v", err)
		return result
	}

	err = workspace.RequireVCS(dir, cfg.VCSMarker)
	switch {
	case errors.Is(err, workspace.ErrNoVCS):
		result.Status = "error"
		result.Message = fmt.Sprintf("No %s in %s", cfg.VCSMarker, dir)
		result.Suggests = []string{
			"Run typemigrate from the repository root",
			"Files are rewritten in place; commit your work first",
		}
	case err != nil:
		result.Status = "error"
		result.Message = err.Error()
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("Found %s in %s", cfg.VCSMarker, dir)
	}
	return result
}

func checkChecker(cfg *config.Config) CheckResult {
	result := CheckResult{
		Check: fmt.Sprintf("Checker: %s", cfg.Checker.Command),
	}

	path, err := checker.Find(cfg.Checker.Command)
	if err != nil {
		// Stdin mode still works without the binary.
		result.Status = "warning"
		result.Message = "Checker not found, --cargo will fail"
		result.Suggests = []string{
			"Install the Rust toolchain or set checker.command",
			"Or pipe diagnostics in: cargo check --tests --message-format json | typemigrate",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s", path)
	result.Details = []string{
		fmt.Sprintf("Arguments: %s", strings.Join(cfg.Checker.Args, " ")),
	}
	return result
}

func printChecks(w io.Writer, results []CheckResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== typemigrate Setup Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before migrating.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSetup is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nReady to migrate!")
	}
}
