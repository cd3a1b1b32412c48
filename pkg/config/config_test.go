package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoad_YAML(t *testing.T) {
	content := `
checker:
  command: cargo
  args: [check, --workspace, --tests, --message-format, json]
passes: 4
rewrite_repeats: 2
log_level: debug
exclude:
  - generated/**
`
	path := writeTempFile(t, "typemigrate.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantArgs := []string{"check", "--workspace", "--tests", "--message-format", "json"}
	if !reflect.DeepEqual(cfg.Checker.Args, wantArgs) {
		t.Errorf("Checker.Args = %v, want %v", cfg.Checker.Args, wantArgs)
	}
	if cfg.Passes != 4 {
		t.Errorf("Passes = %d, want 4", cfg.Passes)
	}
	if cfg.RewriteRepeats != 2 {
		t.Errorf("RewriteRepeats = %d, want 2", cfg.RewriteRepeats)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.VCSMarker != ".git" {
		t.Errorf("VCSMarker = %q, want default .git", cfg.VCSMarker)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "generated/**" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
}

func TestLoad_TOML(t *testing.T) {
	content := `
passes = 2
vcs_marker = ".hg"

[checker]
command = "/usr/local/bin/cargo"
`
	path := writeTempFile(t, "typemigrate.toml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Checker.Command != "/usr/local/bin/cargo" {
		t.Errorf("Checker.Command = %q", cfg.Checker.Command)
	}
	if len(cfg.Checker.Args) != 4 {
		t.Errorf("Checker.Args = %v, want defaults kept", cfg.Checker.Args)
	}
	if cfg.Passes != 2 {
		t.Errorf("Passes = %d, want 2", cfg.Passes)
	}
	if cfg.VCSMarker != ".hg" {
		t.Errorf("VCSMarker = %q, want .hg", cfg.VCSMarker)
	}
	if cfg.RewriteRepeats != 3 {
		t.Errorf("RewriteRepeats = %d, want default 3", cfg.RewriteRepeats)
	}
}

func TestLoad_TOMLUnknownKey(t *testing.T) {
	path := writeTempFile(t, "typemigrate.toml", "pases = 2\n")
	_, err := Load(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "pases") {
		t.Errorf("Load() error = %v, want unknown key error", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/typemigrate.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvChecker, "my-cargo")
	t.Setenv(EnvPasses, "7")
	t.Setenv(EnvLogLevel, "warn")

	path := writeTempFile(t, "typemigrate.yaml", "passes: 2\nlog_level: debug\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Checker.Command != "my-cargo" {
		t.Errorf("Checker.Command = %q, want my-cargo", cfg.Checker.Command)
	}
	if cfg.Passes != 7 {
		t.Errorf("Passes = %d, want 7", cfg.Passes)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_InvalidPassesEnvironment(t *testing.T) {
	t.Setenv(EnvPasses, "many")
	path := writeTempFile(t, "typemigrate.yaml", "passes: 2\n")
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("Load() expected error for non-numeric TYPEMIGRATE_PASSES")
	}
}

func TestFromEnvironment(t *testing.T) {
	cfg, err := FromEnvironment()
	if err != nil {
		t.Fatalf("FromEnvironment() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("FromEnvironment() = %+v, want defaults", cfg)
	}

	t.Setenv(EnvPasses, "0")
	if _, err := FromEnvironment(); err == nil {
		t.Error("FromEnvironment() expected error for zero passes")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty command", func(c *Config) { c.Checker.Command = " " }, "checker.command"},
		{"zero passes", func(c *Config) { c.Passes = 0 }, "passes"},
		{"zero repeats", func(c *Config) { c.RewriteRepeats = 0 }, "rewrite_repeats"},
		{"empty marker", func(c *Config) { c.VCSMarker = "" }, "vcs_marker"},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad exclude", func(c *Config) { c.Exclude = []string{"ok/**", "src/[x"} }, "exclude[1]"},
		{"directory exclude", func(c *Config) { c.Exclude = []string{"generated/**"} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", ""} {
		if _, err := ParseLevel(level); err != nil {
			t.Errorf("ParseLevel(%q) error = %v", level, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("ParseLevel(trace) expected error")
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
