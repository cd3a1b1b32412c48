// Package migrate runs the check, classify, index and rewrite cycle until the
// configured number of passes is done.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/typemigrate/internal/checker"
	"github.com/ccollicutt/typemigrate/pkg/classify"
	"github.com/ccollicutt/typemigrate/pkg/diagnostic"
	"github.com/ccollicutt/typemigrate/pkg/index"
	"github.com/ccollicutt/typemigrate/pkg/rewrite"
)

// Defaults for a Migrator.
const (
	DefaultPasses         = 10
	DefaultRewriteRepeats = 3
)

// ErrNoTargets is returned when the first pass finds nothing to migrate.
var ErrNoTargets = errors.New("no migration target found")

// Migrator drives repeated check/rewrite passes over a working tree.
type Migrator struct {
	checker  checker.Checker
	rewriter *rewrite.Rewriter
	passes   int
	repeats  int
	exclude  []string
	logger   *zap.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithPasses sets the number of check/rewrite passes.
func WithPasses(n int) Option {
	return func(m *Migrator) {
		m.passes = n
	}
}

// WithRewriteRepeats sets how many times the rewriter is applied to the
// index of a single pass.
func WithRewriteRepeats(n int) Option {
	return func(m *Migrator) {
		m.repeats = n
	}
}

// WithRewriter replaces the default rewriter.
func WithRewriter(r *rewrite.Rewriter) Option {
	return func(m *Migrator) {
		if r != nil {
			m.rewriter = r
		}
	}
}

// WithExclude skips diagnostics in files matching any of the glob patterns.
func WithExclude(patterns []string) Option {
	return func(m *Migrator) {
		m.exclude = append([]string(nil), patterns...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Migrator reading diagnostics from c.
func New(c checker.Checker, opts ...Option) (*Migrator, error) {
	if c == nil {
		return nil, errors.New("checker is required")
	}
	m := &Migrator{
		checker: c,
		passes:  DefaultPasses,
		repeats: DefaultRewriteRepeats,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rewriter == nil {
		m.rewriter = rewrite.New(rewrite.WithLogger(m.logger))
	}
	if m.passes < 1 {
		return nil, fmt.Errorf("passes must be >= 1, got %d", m.passes)
	}
	if m.repeats < 1 {
		return nil, fmt.Errorf("rewrite repeats must be >= 1, got %d", m.repeats)
	}
	if err := validatePatterns(m.exclude); err != nil {
		return nil, err
	}
	return m, nil
}

// passState is everything one pass knows. It is created by collect, consumed
// by apply and then dropped.
type passState struct {
	number   int
	index    *index.Index
	stats    diagnostic.Stats
	matched  int
	excluded int
}

// Run executes the passes. Every pass checks the tree afresh, so lines fixed
// by one pass stop being reported in the next. The run stops early only when
// the first pass has nothing to do (ErrNoTargets) or a single-shot checker
// has no more input.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Checker:   m.checker.Name(),
		StartTime: time.Now(),
	}
	defer func() {
		result.EndTime = time.Now()
	}()

	for n := 1; n <= m.passes; n++ {
		state, err := m.collect(ctx, n)
		if errors.Is(err, checker.ErrExhausted) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("pass %d: %w", n, err)
		}

		if n == 1 && state.index.Len() == 0 {
			m.logger.Info("no matching diagnostics",
				zap.String("checker", result.Checker),
				zap.Int("compiler_messages", state.stats.Kept),
			)
			return result, ErrNoTargets
		}

		files, err := m.apply(ctx, state)
		pass := state.result(files)
		result.Passes = append(result.Passes, pass)
		if err != nil {
			return result, fmt.Errorf("pass %d: %w", n, err)
		}

		m.logger.Info("pass complete",
			zap.Int("pass", n),
			zap.Int("compiler_messages", pass.Decoded),
			zap.Int("indexed", pass.Indexed),
			zap.Int("dropped", pass.Dropped),
			zap.Int("files", len(pass.Files)),
			zap.Int("lines_changed", pass.LinesChanged()),
		)
	}
	return result, nil
}

// Scan runs the checker once and reports what a pass would rewrite without
// touching any file.
func (m *Migrator) Scan(ctx context.Context) ([]Target, error) {
	state, err := m.collect(ctx, 1)
	if err != nil {
		return nil, err
	}
	targets := make([]Target, 0, state.index.Len())
	for _, key := range state.index.Keys() {
		rec, _ := state.index.Get(key)
		targets = append(targets, newTarget(key, rec))
	}
	return targets, nil
}

func (m *Migrator) collect(ctx context.Context, number int) (*passState, error) {
	r, err := m.checker.Check(ctx)
	if err != nil {
		return nil, err
	}

	state := &passState{number: number, index: index.New()}
	dec := diagnostic.NewDecoder(r)
	for {
		rec, err := dec.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		key, err := index.KeyFor(rec)
		if err != nil {
			return nil, err
		}
		text, err := rec.Excerpt()
		if err != nil {
			return nil, err
		}
		if classify.Classify(text) == classify.None {
			continue
		}
		state.matched++

		if matchAny(m.exclude, key.File) {
			state.excluded++
			continue
		}
		state.index.Add(key, rec)
	}
	state.stats = dec.Stats()
	return state, nil
}

// apply runs the rewriter over every indexed file, repeats times, one file at
// a time in sorted order.
func (m *Migrator) apply(ctx context.Context, state *passState) ([]rewrite.FileResult, error) {
	files := state.index.Files()
	merged := make([]rewrite.FileResult, len(files))
	for i, f := range files {
		merged[i].Path = f
	}

	for rep := 0; rep < m.repeats; rep++ {
		for i, f := range files {
			res, err := m.rewriter.RewriteFile(ctx, f, state.index.Lines(f))
			if err != nil {
				return merged, err
			}
			merged[i].Lines = res.Lines
			merged[i].Changed = append(merged[i].Changed, res.Changed...)
		}
	}
	return merged, nil
}

func (s *passState) result(files []rewrite.FileResult) PassResult {
	return PassResult{
		Number:   s.number,
		Lines:    s.stats.Lines,
		Decoded:  s.stats.Kept,
		Matched:  s.matched,
		Excluded: s.excluded,
		Indexed:  s.index.Len(),
		Dropped:  s.index.Dropped(),
		Files:    files,
	}
}

func newTarget(key index.LineKey, rec *diagnostic.Record) Target {
	t := Target{File: key.File, Line: key.Line}
	span, err := rec.PrimarySpan()
	if err != nil {
		t.Problem = err.Error()
		return t
	}
	t.Excerpt, _ = span.Excerpt()
	t.Kind = classify.Classify(t.Excerpt)
	if t.Kind != classify.DefaultTypeFill {
		return t
	}

	msg, ok := rec.FirstChildMessage()
	if !ok {
		t.Problem = rewrite.ErrNoChildMessage.Error()
		return t
	}
	typeName, err := classify.ExtractType(msg)
	if err != nil {
		t.Problem = err.Error()
		return t
	}
	t.Type = typeName
	return t
}
