package migrate_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ccollicutt/typemigrate/internal/checker"
	"github.com/ccollicutt/typemigrate/internal/diagtest"
	"github.com/ccollicutt/typemigrate/pkg/classify"
	"github.com/ccollicutt/typemigrate/pkg/diagnostic"
	"github.com/ccollicutt/typemigrate/pkg/migrate"
	"github.com/ccollicutt/typemigrate/pkg/rewrite"
)

// treeChecker emulates a type checker over a directory: it reports every line
// matching a migration pattern. With gated set, Default lines are only
// reported once a file has no call-chain lines left, the way inference
// errors surface only after neighbouring conversions are fixed.
type treeChecker struct {
	dir   string
	files []string
	gated bool
	typ   string
	calls int
}

func (c *treeChecker) Name() string { return "tree" }

func (c *treeChecker) Check(ctx context.Context) (io.Reader, error) {
	c.calls++
	var recs []*diagnostic.Record
	for _, f := range c.files {
		data, err := os.ReadFile(filepath.Join(c.dir, f))
		if err != nil {
			return nil, err
		}
		lines := strings.Split(string(data), "\n")
		hasCallChain := false
		for _, l := range lines {
			if classify.Classify(l) == classify.CallChainStrip {
				hasCallChain = true
			}
		}
		for i, l := range lines {
			switch classify.Classify(l) {
			case classify.CallChainStrip:
				recs = append(recs, diagtest.New(f, i+1, strings.TrimSpace(l)))
			case classify.DefaultTypeFill:
				if c.gated && hasCallChain {
					continue
				}
				recs = append(recs, diagtest.New(f, i+1, strings.TrimSpace(l),
					diagtest.WithChild("consider giving it an explicit type: `<"+c.typ+">`")))
			}
		}
	}
	return strings.NewReader(diagtest.Stream(recs...)), nil
}

func setupTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func newMigrator(t *testing.T, c checker.Checker, dir string, opts ...migrate.Option) *migrate.Migrator {
	t.Helper()
	logger := zaptest.NewLogger(t)
	opts = append([]migrate.Option{
		migrate.WithLogger(logger),
		migrate.WithRewriter(rewrite.New(rewrite.WithBaseDir(dir), rewrite.WithLogger(logger))),
	}, opts...)
	m, err := migrate.New(c, opts...)
	require.NoError(t, err)
	return m
}

func TestRun_ConvergesAcrossPasses(t *testing.T) {
	dir := setupTree(t, map[string]string{
		"src/lib.rs": "fn f() {\n    let x: Foo = bar.pack().into();\n    let y = Default::default();\n}\n",
	})
	c := &treeChecker{dir: dir, files: []string{"src/lib.rs"}, gated: true, typ: "Bar"}

	res, err := newMigrator(t, c, dir, migrate.WithPasses(3)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fn f() {\n    let x: Foo = bar;\n    let y = Bar::default();\n}\n", readFile(t, dir, "src/lib.rs"))
	assert.Equal(t, 3, c.calls, "pass count is fixed")
	require.Len(t, res.Passes, 3)

	assert.Equal(t, 1, res.Passes[0].Indexed)
	assert.Equal(t, classify.CallChainStrip, res.Passes[0].Files[0].Changed[0].Kind)
	assert.Equal(t, 1, res.Passes[1].Indexed)
	assert.Equal(t, classify.DefaultTypeFill, res.Passes[1].Files[0].Changed[0].Kind)
	assert.Zero(t, res.Passes[2].Indexed)
	assert.Empty(t, res.Passes[2].Files)

	assert.Equal(t, 2, res.LinesChanged())
	assert.Equal(t, []string{"src/lib.rs"}, res.FilesChanged())
	assert.Equal(t, "tree", res.Checker)
	assert.False(t, res.EndTime.Before(res.StartTime))
}

func TestRun_NoTargetsOnFirstPass(t *testing.T) {
	content := "fn f() {\n    let x = 1;\n}\n"
	dir := setupTree(t, map[string]string{"src/lib.rs": content})
	c := &treeChecker{dir: dir, files: []string{"src/lib.rs"}}

	res, err := newMigrator(t, c, dir).Run(context.Background())
	assert.ErrorIs(t, err, migrate.ErrNoTargets)
	assert.Equal(t, 1, c.calls)
	assert.Empty(t, res.Passes)
	assert.Equal(t, content, readFile(t, dir, "src/lib.rs"))
}

func TestRun_FixedPoint(t *testing.T) {
	dir := setupTree(t, map[string]string{
		"src/a.rs": "let a = b.unpack();\n",
		"src/b.rs": "let d = Default::default();\n",
	})
	c := &treeChecker{dir: dir, files: []string{"src/a.rs", "src/b.rs"}, typ: "packed::Byte32"}

	_, err := newMigrator(t, c, dir, migrate.WithPasses(2)).Run(context.Background())
	require.NoError(t, err)
	a, b := readFile(t, dir, "src/a.rs"), readFile(t, dir, "src/b.rs")
	assert.Equal(t, "let a = b;\n", a)
	assert.Equal(t, "let d = packed::Byte32::default();\n", b)

	_, err = newMigrator(t, c, dir, migrate.WithPasses(2)).Run(context.Background())
	assert.ErrorIs(t, err, migrate.ErrNoTargets)
	assert.Equal(t, a, readFile(t, dir, "src/a.rs"))
	assert.Equal(t, b, readFile(t, dir, "src/b.rs"))
}

func TestRun_StreamIsSingleShot(t *testing.T) {
	dir := setupTree(t, map[string]string{"src/lib.rs": "x.into()\n"})
	stream := diagtest.Stream(diagtest.New("src/lib.rs", 1, "x.into()"))
	c := checker.NewStream("stdin", strings.NewReader(stream))

	res, err := newMigrator(t, c, dir, migrate.WithPasses(10)).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Passes, 1)
	assert.Equal(t, "x\n", readFile(t, dir, "src/lib.rs"))
}

func TestRun_OversizedStreamLine(t *testing.T) {
	dir := setupTree(t, map[string]string{"src/lib.rs": "x.pack()\n"})
	// Build output with a huge artifact list comes before the diagnostic.
	artifact := `{"reason":"build-script-executed","env":["` + strings.Repeat("x", 17*1024*1024) + `"]}`
	stream := artifact + "\n" + diagtest.Stream(diagtest.New("src/lib.rs", 1, "x.pack()"))
	c := checker.NewStream("stdin", strings.NewReader(stream))

	res, err := newMigrator(t, c, dir).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x\n", readFile(t, dir, "src/lib.rs"))
	assert.Equal(t, 1, res.Passes[0].Decoded)
}

func TestRun_FirstDiagnosticPerLineWins(t *testing.T) {
	dir := setupTree(t, map[string]string{"src/lib.rs": "let v = Default::default();\n"})
	stream := diagtest.Stream(
		diagtest.New("src/lib.rs", 1, "Default::default()", diagtest.WithChild("`<First>`")),
		diagtest.New("src/lib.rs", 1, "Default::default()", diagtest.WithChild("`<Second>`")),
	)
	c := checker.NewStream("stdin", strings.NewReader(stream))

	res, err := newMigrator(t, c, dir).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "let v = First::default();\n", readFile(t, dir, "src/lib.rs"))
	assert.Equal(t, 2, res.Passes[0].Matched)
	assert.Equal(t, 1, res.Passes[0].Indexed)
	assert.Equal(t, 1, res.Passes[0].Dropped)
}

func TestRun_RewriteRepeatsAreIdempotent(t *testing.T) {
	dir := setupTree(t, map[string]string{"src/lib.rs": "keep\nf(a.pack(), b.into())\nkeep\n"})
	stream := diagtest.Stream(diagtest.New("src/lib.rs", 2, "f(a.pack(), b.into())"))
	c := checker.NewStream("stdin", strings.NewReader(stream))

	res, err := newMigrator(t, c, dir, migrate.WithRewriteRepeats(3)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "keep\nf(a, b)\nkeep\n", readFile(t, dir, "src/lib.rs"))
	require.Len(t, res.Passes[0].Files, 1)
	assert.Len(t, res.Passes[0].Files[0].Changed, 1, "later repeats change nothing")
	assert.Equal(t, 3, res.Passes[0].Files[0].Lines)
}

func TestRun_Exclude(t *testing.T) {
	dir := setupTree(t, map[string]string{
		"src/lib.rs":       "x.into()\n",
		"generated/mol.rs": "y.into()\n",
	})
	c := &treeChecker{dir: dir, files: []string{"src/lib.rs", "generated/mol.rs"}}

	res, err := newMigrator(t, c, dir, migrate.WithPasses(1), migrate.WithExclude([]string{"generated/**"})).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x\n", readFile(t, dir, "src/lib.rs"))
	assert.Equal(t, "y.into()\n", readFile(t, dir, "generated/mol.rs"))
	assert.Equal(t, 1, res.Passes[0].Excluded)
}

func TestRun_FatalErrors(t *testing.T) {
	t.Run("missing type capture", func(t *testing.T) {
		dir := setupTree(t, map[string]string{"src/lib.rs": "let v = Default::default();\n"})
		stream := diagtest.Stream(diagtest.New("src/lib.rs", 1, "Default::default()", diagtest.WithChild("type annotations needed")))

		_, err := newMigrator(t, checker.NewStream("stdin", strings.NewReader(stream)), dir).Run(context.Background())
		assert.ErrorIs(t, err, classify.ErrNoTypeCapture)
		assert.Equal(t, "let v = Default::default();\n", readFile(t, dir, "src/lib.rs"))
	})

	t.Run("record without spans", func(t *testing.T) {
		rec := diagtest.New("src/lib.rs", 1, "x.into()")
		rec.Message.Spans = nil
		c := checker.NewStream("stdin", strings.NewReader(diagtest.Stream(rec)))

		_, err := newMigrator(t, c, t.TempDir()).Run(context.Background())
		assert.ErrorIs(t, err, diagnostic.ErrNoPrimarySpan)
	})

	t.Run("file missing", func(t *testing.T) {
		c := checker.NewStream("stdin", strings.NewReader(diagtest.Stream(diagtest.New("src/gone.rs", 1, "x.into()"))))

		_, err := newMigrator(t, c, t.TempDir()).Run(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("checker cannot run", func(t *testing.T) {
		c := checker.NewCommand("typemigrate-no-such-checker-xyz", nil)

		_, err := newMigrator(t, c, t.TempDir()).Run(context.Background())
		assert.ErrorIs(t, err, checker.ErrCheckerNotFound)
	})
}

func TestScan_WritesNothing(t *testing.T) {
	content := "let a = b.pack();\nlet c = Default::default();\nlet d = Default::new();\n"
	dir := setupTree(t, map[string]string{"src/lib.rs": content})
	stream := diagtest.Stream(
		diagtest.New("src/lib.rs", 2, "let c = Default::default();", diagtest.WithChild("`<Bar>`")),
		diagtest.New("src/lib.rs", 1, "let a = b.pack();"),
		diagtest.New("src/lib.rs", 3, "let d = Default::new();"),
	)
	c := checker.NewStream("stdin", strings.NewReader(stream))

	targets, err := newMigrator(t, c, dir).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, content, readFile(t, dir, "src/lib.rs"))

	require.Len(t, targets, 3)
	assert.Equal(t, migrate.Target{File: "src/lib.rs", Line: 1, Kind: classify.CallChainStrip, Excerpt: "let a = b.pack();"}, targets[0])
	assert.Equal(t, "Bar", targets[1].Type)
	assert.Empty(t, targets[1].Problem)
	assert.Equal(t, rewrite.ErrNoChildMessage.Error(), targets[2].Problem)
}

func TestNew_Validation(t *testing.T) {
	c := checker.NewStream("stdin", strings.NewReader(""))

	_, err := migrate.New(nil)
	assert.Error(t, err)
	_, err = migrate.New(c, migrate.WithPasses(0))
	assert.Error(t, err)
	_, err = migrate.New(c, migrate.WithRewriteRepeats(0))
	assert.Error(t, err)
	_, err = migrate.New(c, migrate.WithExclude([]string{"[unterminated"}))
	assert.Error(t, err)
	_, err = migrate.New(c)
	assert.NoError(t, err)
}
