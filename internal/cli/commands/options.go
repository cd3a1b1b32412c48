package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ccollicutt/typemigrate/pkg/config"
	"github.com/ccollicutt/typemigrate/pkg/output"
)

// MigrateOptions holds the flags shared by the root, run and scan commands.
type MigrateOptions struct {
	Cargo    bool
	Number   int
	Config   string
	LogLevel string
	Color    string
	Output   string
	Verbose  bool
	Quiet    bool
}

// Bind registers the options on fs.
func (o *MigrateOptions) Bind(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Cargo, "cargo", false, "Run the checker instead of reading diagnostics from stdin")
	fs.IntVarP(&o.Number, "number", "n", 10, "Number of check/rewrite passes")
	fs.StringVar(&o.Config, "config", "", "Configuration file (YAML or TOML)")
	fs.StringVar(&o.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	fs.StringVar(&o.Color, "color", "auto", "Colorize output (auto|on|off)")
	fs.StringVarP(&o.Output, "output", "o", "text", "Output format (text|json)")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "Show every changed line")
	fs.BoolVarP(&o.Quiet, "quiet", "q", false, "Summary only, no details")
}

// loadConfig reads the configuration file, if one was named, and applies the
// flags the user set on top of it.
func (o *MigrateOptions) loadConfig(ctx context.Context, fs *pflag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.Config != "" {
		cfg, err = config.Load(ctx, o.Config)
	} else {
		cfg, err = config.FromEnvironment()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if fs.Changed("number") {
		cfg.Passes = o.Number
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func (o *MigrateOptions) formatOptions(w io.Writer) (output.FormatOptions, error) {
	enabled, err := colorEnabled(o.Color, w)
	if err != nil {
		return output.FormatOptions{}, err
	}
	return output.FormatOptions{
		Verbose: o.Verbose,
		Quiet:   o.Quiet,
		Color:   enabled,
	}, nil
}

// colorEnabled resolves a --color mode for output written to w.
func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "auto", "":
		f, ok := w.(*os.File)
		if !ok || color.NoColor {
			return false, nil
		}
		return isTerminal(f), nil
	default:
		return false, fmt.Errorf("unknown color mode %q (must be auto, on, or off)", mode)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// workDir is the directory rewrites are resolved against: checker.dir when
// set, otherwise the current directory.
func workDir(cfg *config.Config) (string, error) {
	if cfg.Checker.Dir != "" {
		return cfg.Checker.Dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return dir, nil
}
