// Package config provides configuration loading and validation for typemigrate.
package config

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	Checker CheckerConfig `yaml:"checker" toml:"checker"`

	// Passes is the number of check/rewrite cycles.
	Passes int `yaml:"passes" toml:"passes"`

	// RewriteRepeats is how many times each pass applies its index.
	RewriteRepeats int `yaml:"rewrite_repeats" toml:"rewrite_repeats"`

	// VCSMarker is the entry that must exist in the checker directory (or the
	// working directory when checker.dir is unset) before any file is touched.
	VCSMarker string `yaml:"vcs_marker" toml:"vcs_marker"`

	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Exclude lists doublestar globs of span file names that are never
	// rewritten. "**" crosses directories; a pattern without a "/" also
	// matches the base name.
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude"`
}

// CheckerConfig names the type checker run with --cargo.
type CheckerConfig struct {
	Command string   `yaml:"command" toml:"command"`
	Args    []string `yaml:"args" toml:"args"`

	// Dir is the directory the checker runs in and span file names are
	// resolved against. Empty means the current one.
	Dir string `yaml:"dir,omitempty" toml:"dir"`

	// Env holds extra KEY=VALUE entries appended to the checker environment.
	Env []string `yaml:"env,omitempty" toml:"env"`
}
