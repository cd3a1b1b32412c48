// Package rewrite applies the migration substitutions to indexed lines of a
// source file and writes the file back in full.
package rewrite

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ccollicutt/typemigrate/pkg/classify"
	"github.com/ccollicutt/typemigrate/pkg/diagnostic"
)

// ErrNoChildMessage is returned when a Default line's diagnostic has no
// child message to take the type from.
var ErrNoChildMessage = errors.New("diagnostic has no child message")

// LineChange describes one rewritten line.
type LineChange struct {
	// Line is the 1-based line number.
	Line int

	// Kind is the pattern the live line matched.
	Kind classify.Kind

	Before string
	After  string
}

// FileResult summarises one rewrite of a file.
type FileResult struct {
	// Path is the file as named by the diagnostics.
	Path string

	// Lines is the number of lines in the file.
	Lines int

	// Changed lists the lines whose text changed.
	Changed []LineChange
}

// Rewriter rewrites files in place.
type Rewriter struct {
	baseDir string
	logger  *zap.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithBaseDir resolves relative file names against dir.
func WithBaseDir(dir string) Option {
	return func(r *Rewriter) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger used for per-line debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Rewriter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Rewriter.
func New(opts ...Option) *Rewriter {
	r := &Rewriter{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the filesystem path for a file name taken from a span.
func (r *Rewriter) Resolve(path string) string {
	if r.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.baseDir, path)
}

// RewriteFile rewrites the lines of path that have an entry in lines.
// Indexed lines are re-classified on their current text, so a line fixed by
// an earlier rewrite is left alone. All other lines are copied unchanged.
// The file is always written back, even when nothing changed.
func (r *Rewriter) RewriteFile(ctx context.Context, path string, lines map[int]*diagnostic.Record) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fsPath := r.Resolve(path)
	info, err := os.Stat(fsPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", fsPath, err)
	}

	src, err := readLines(fsPath)
	if err != nil {
		return nil, err
	}

	result := &FileResult{Path: path, Lines: len(src)}
	var sb strings.Builder
	for i, l := range src {
		n := i + 1
		body := l.body
		if rec, ok := lines[n]; ok {
			kind, after, err := rewriteLine(body, rec)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, n, err)
			}
			if after != body {
				result.Changed = append(result.Changed, LineChange{Line: n, Kind: kind, Before: body, After: after})
				r.logger.Debug("rewrote line",
					zap.String("file", path),
					zap.Int("line", n),
					zap.String("kind", string(kind)),
					zap.String("after", after),
				)
			}
			body = after
		}
		sb.WriteString(body)
		sb.WriteString(l.eol)
	}

	if err := atomicWriteFile(fsPath, []byte(sb.String()), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing %s: %w", fsPath, err)
	}
	return result, nil
}

func rewriteLine(line string, rec *diagnostic.Record) (classify.Kind, string, error) {
	kind := classify.Classify(line)
	switch kind {
	case classify.CallChainStrip:
		return kind, classify.StripCallChain(line), nil
	case classify.DefaultTypeFill:
		msg, ok := rec.FirstChildMessage()
		if !ok {
			return kind, "", ErrNoChildMessage
		}
		typeName, err := classify.ExtractType(msg)
		if err != nil {
			return kind, "", err
		}
		return kind, classify.FillDefault(line, typeName), nil
	default:
		return kind, line, nil
	}
}

type sourceLine struct {
	body string
	eol  string
}

// readLines reads the whole file, keeping each line's terminator so that
// untouched lines are reproduced byte for byte.
func readLines(path string) (lines []sourceLine, retErr error) {
	f, err := os.Open(path) // #nosec G304 -- paths come from checker diagnostics
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()

	reader := bufio.NewReader(f)
	for {
		text, err := reader.ReadString('\n')
		if text != "" {
			lines = append(lines, splitEOL(text))
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
}

func splitEOL(text string) sourceLine {
	switch {
	case strings.HasSuffix(text, "\r\n"):
		return sourceLine{body: text[:len(text)-2], eol: "\r\n"}
	case strings.HasSuffix(text, "\n"):
		return sourceLine{body: text[:len(text)-1], eol: "\n"}
	default:
		return sourceLine{body: text}
	}
}
