package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ccollicutt/typemigrate/internal/checker"
	"github.com/ccollicutt/typemigrate/internal/workspace"
	"github.com/ccollicutt/typemigrate/pkg/migrate"
)

// DefaultLogLevel is used when no level is configured.
const DefaultLogLevel = "info"

// Environment variable names.
const (
	EnvChecker  = "TYPEMIGRATE_CHECKER"
	EnvPasses   = "TYPEMIGRATE_PASSES"
	EnvLogLevel = "TYPEMIGRATE_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Checker: CheckerConfig{
			Command: checker.DefaultCommand,
			Args:    append([]string(nil), checker.DefaultArgs...),
		},
		Passes:         migrate.DefaultPasses,
		RewriteRepeats: migrate.DefaultRewriteRepeats,
		VCSMarker:      workspace.DefaultVCSMarker,
		LogLevel:       DefaultLogLevel,
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	if cmd := os.Getenv(EnvChecker); cmd != "" {
		c.Checker.Command = cmd
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if passes := os.Getenv(EnvPasses); passes != "" {
		n, err := strconv.Atoi(passes)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPasses, err)
		}
		c.Passes = n
	}
	return nil
}
