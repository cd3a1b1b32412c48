// Package index keeps at most one diagnostic per source line for a pass.
package index

import (
	"fmt"
	"sort"

	"github.com/ccollicutt/typemigrate/pkg/diagnostic"
)

// LineKey addresses one physical source line.
type LineKey struct {
	File string
	Line int
}

// String returns file:line.
func (k LineKey) String() string {
	return fmt.Sprintf("%s:%d", k.File, k.Line)
}

// KeyFor derives the LineKey of a record from its primary span.
func KeyFor(rec *diagnostic.Record) (LineKey, error) {
	span, err := rec.PrimarySpan()
	if err != nil {
		return LineKey{}, err
	}
	return LineKey{File: span.FileName, Line: span.LineStart}, nil
}

// Index maps file name to line number to the first record seen for that line.
// An Index is built for a single pass and then discarded.
type Index struct {
	files   map[string]map[int]*diagnostic.Record
	count   int
	dropped int
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		files: make(map[string]map[int]*diagnostic.Record),
	}
}

// Add records rec under key unless the key is already present. It reports
// whether rec was kept.
func (x *Index) Add(key LineKey, rec *diagnostic.Record) bool {
	lines, ok := x.files[key.File]
	if !ok {
		lines = make(map[int]*diagnostic.Record)
		x.files[key.File] = lines
	}
	if _, seen := lines[key.Line]; seen {
		x.dropped++
		return false
	}
	lines[key.Line] = rec
	x.count++
	return true
}

// Lines returns the line index for file, or nil if nothing was recorded.
func (x *Index) Lines(file string) map[int]*diagnostic.Record {
	return x.files[file]
}

// Files returns the indexed file names in sorted order.
func (x *Index) Files() []string {
	files := make([]string, 0, len(x.files))
	for f := range x.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Keys returns every indexed key ordered by file then line.
func (x *Index) Keys() []LineKey {
	keys := make([]LineKey, 0, x.count)
	for _, f := range x.Files() {
		lines := make([]int, 0, len(x.files[f]))
		for l := range x.files[f] {
			lines = append(lines, l)
		}
		sort.Ints(lines)
		for _, l := range lines {
			keys = append(keys, LineKey{File: f, Line: l})
		}
	}
	return keys
}

// Get returns the record stored under key.
func (x *Index) Get(key LineKey) (*diagnostic.Record, bool) {
	rec, ok := x.files[key.File][key.Line]
	return rec, ok
}

// Len returns the number of indexed lines.
func (x *Index) Len() int {
	return x.count
}

// Dropped returns how many records were discarded as duplicates.
func (x *Index) Dropped() int {
	return x.dropped
}
