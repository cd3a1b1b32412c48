// Package checker produces the diagnostic stream a migration pass consumes,
// either by running the type checker or by reading an external stream.
//
// A failing build is the normal case while a migration is in progress, so
// the checker's exit status is never treated as an error; only its output
// matters.
package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultCommand is the checker run when none is configured.
const DefaultCommand = "cargo"

// DefaultArgs make cargo print one JSON message per line.
var DefaultArgs = []string{"check", "--tests", "--message-format", "json"}

var (
	// ErrCheckerNotFound is returned when the checker binary cannot be located.
	ErrCheckerNotFound = errors.New("checker not found")

	// ErrExhausted is returned by single-shot checkers once their stream
	// has been handed out.
	ErrExhausted = errors.New("diagnostic stream already consumed")
)

// Checker yields one complete diagnostic stream per call.
type Checker interface {
	// Name describes the checker for logs and reports.
	Name() string

	// Check blocks until the diagnostics for the current state of the
	// working tree are available.
	Check(ctx context.Context) (io.Reader, error)
}

// RunError describes a checker process that could not be run.
type RunError struct {
	Command string
	Cause   error
	Stderr  string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("running %s: %v", e.Command, e.Cause)
}

func (e *RunError) Unwrap() error {
	return e.Cause
}

// Command runs an external checker and buffers its standard output.
type Command struct {
	path   string
	args   []string
	dir    string
	env    []string
	logger *zap.Logger
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithDir runs the checker in dir instead of the current directory.
func WithDir(dir string) CommandOption {
	return func(c *Command) {
		c.dir = dir
	}
}

// WithEnv adds environment variables on top of the current environment.
func WithEnv(env ...string) CommandOption {
	return func(c *Command) {
		c.env = append(c.env, env...)
	}
}

// WithLogger sets the logger that receives the checker's stderr.
func WithLogger(logger *zap.Logger) CommandOption {
	return func(c *Command) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCommand creates a checker that runs path with args.
func NewCommand(path string, args []string, opts ...CommandOption) *Command {
	c := &Command{
		path:   path,
		args:   append([]string(nil), args...),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the command line.
func (c *Command) Name() string {
	return strings.Join(append([]string{c.path}, c.args...), " ")
}

// Check runs the checker to completion and returns everything it wrote to
// standard output.
func (c *Command) Check(ctx context.Context) (io.Reader, error) {
	bin, err := Find(c.path)
	if err != nil {
		return nil, &RunError{Command: c.Name(), Cause: err}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, c.args...) // #nosec G204 -- checker command is user configured
	cmd.Dir = c.dir
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		c.logger.Debug("checker exited with failure",
			zap.String("command", c.Name()),
			zap.Int("exit_code", exitErr.ExitCode()),
		)
	default:
		return nil, &RunError{Command: c.Name(), Cause: err, Stderr: stderr.String()}
	}

	if stderr.Len() > 0 {
		c.logger.Debug("checker stderr", zap.String("output", stderr.String()))
	}
	return &stdout, nil
}

// Find locates the checker binary. Names containing a path separator are
// used as given; bare names are looked up in PATH.
func Find(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s: %w", name, ErrCheckerNotFound)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrCheckerNotFound)
	}
	return path, nil
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0o111 != 0
}
