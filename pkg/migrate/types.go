package migrate

import (
	"sort"
	"time"

	"github.com/ccollicutt/typemigrate/pkg/classify"
	"github.com/ccollicutt/typemigrate/pkg/rewrite"
)

// Result describes a complete migration run.
type Result struct {
	// Checker names the diagnostic source.
	Checker string

	// Passes holds one entry per completed pass.
	Passes []PassResult

	// StartTime is when the run began.
	StartTime time.Time

	// EndTime is when the run finished.
	EndTime time.Time
}

// PassResult describes one check/rewrite cycle.
type PassResult struct {
	// Number is the 1-based pass number.
	Number int

	// Lines is the number of lines of checker output read.
	Lines int

	// Decoded is the number of compiler-message records.
	Decoded int

	// Matched is the number of records whose primary span matched a pattern.
	Matched int

	// Excluded is the number of matched records in excluded files.
	Excluded int

	// Indexed is the number of distinct lines scheduled for rewriting.
	Indexed int

	// Dropped is the number of matched records on an already indexed line.
	Dropped int

	// Files lists the files rewritten in this pass, merged across repeats.
	Files []rewrite.FileResult
}

// LinesChanged returns the number of line edits made in the pass.
func (p *PassResult) LinesChanged() int {
	n := 0
	for _, f := range p.Files {
		n += len(f.Changed)
	}
	return n
}

// LinesChanged returns the number of line edits across all passes.
func (r *Result) LinesChanged() int {
	n := 0
	for i := range r.Passes {
		n += r.Passes[i].LinesChanged()
	}
	return n
}

// FilesChanged returns the sorted names of files with at least one edit.
func (r *Result) FilesChanged() []string {
	seen := make(map[string]bool)
	var files []string
	for _, p := range r.Passes {
		for _, f := range p.Files {
			if len(f.Changed) > 0 && !seen[f.Path] {
				seen[f.Path] = true
				files = append(files, f.Path)
			}
		}
	}
	sort.Strings(files)
	return files
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Target is one line a pass would rewrite.
type Target struct {
	File    string        `json:"file"`
	Line    int           `json:"line"`
	Kind    classify.Kind `json:"kind"`
	Excerpt string        `json:"excerpt"`

	// Type is the type a DefaultTypeFill rewrite would insert.
	Type string `json:"type,omitempty"`

	// Problem explains why the rewrite would fail, if it would.
	Problem string `json:"problem,omitempty"`
}
