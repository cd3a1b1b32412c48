// Package output provides formatting for migration and scan results.
package output

import (
	"time"

	"github.com/ccollicutt/typemigrate/pkg/migrate"
)

// Report is the complete output of a run or a scan.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Passes holds one entry per completed pass of a run.
	Passes []PassReport `json:"passes,omitempty"`

	// Targets lists the lines a scan found.
	Targets []migrate.Target `json:"targets,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	PassesRun    int `json:"passes_run"`
	LinesChanged int `json:"lines_changed"`
	FilesChanged int `json:"files_changed"`

	// Targets is the number of lines a scan would rewrite.
	Targets int `json:"targets"`

	// Problems is the number of scan targets whose rewrite would fail.
	Problems int `json:"problems"`
}

// PassReport describes one pass.
type PassReport struct {
	Number   int          `json:"number"`
	Decoded  int          `json:"decoded"`
	Matched  int          `json:"matched"`
	Excluded int          `json:"excluded"`
	Indexed  int          `json:"indexed"`
	Dropped  int          `json:"dropped"`
	Files    []FileReport `json:"files,omitempty"`
}

// FileReport lists the edits made to one file in one pass.
type FileReport struct {
	Path    string   `json:"path"`
	Changes []Change `json:"changes"`
}

// Change is one edited line.
type Change struct {
	Line   int    `json:"line"`
	Kind   string `json:"kind"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Metadata provides context about the run.
type Metadata struct {
	// Mode is "run" or "scan".
	Mode string `json:"mode"`

	// Checker names the diagnostic source.
	Checker string `json:"checker"`

	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// Files lists every file changed by the run.
	Files []string `json:"files,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// NewReport creates a Report from a migration result.
func NewReport(result *migrate.Result, configFile string) *Report {
	files := result.FilesChanged()
	report := &Report{
		Summary: Summary{
			PassesRun:    len(result.Passes),
			LinesChanged: result.LinesChanged(),
			FilesChanged: len(files),
		},
		Metadata: Metadata{
			Mode:       "run",
			Checker:    result.Checker,
			ConfigFile: configFile,
			Files:      files,
			StartedAt:  result.StartTime,
			Duration:   result.Duration(),
		},
	}

	for i := range result.Passes {
		p := &result.Passes[i]
		pr := PassReport{
			Number:   p.Number,
			Decoded:  p.Decoded,
			Matched:  p.Matched,
			Excluded: p.Excluded,
			Indexed:  p.Indexed,
			Dropped:  p.Dropped,
		}
		for _, f := range p.Files {
			if len(f.Changed) == 0 {
				continue
			}
			fr := FileReport{Path: f.Path}
			for _, c := range f.Changed {
				fr.Changes = append(fr.Changes, Change{
					Line:   c.Line,
					Kind:   string(c.Kind),
					Before: c.Before,
					After:  c.After,
				})
			}
			pr.Files = append(pr.Files, fr)
		}
		report.Passes = append(report.Passes, pr)
	}

	return report
}

// NewScanReport creates a Report from the targets of a scan.
func NewScanReport(checkerName string, targets []migrate.Target, configFile string) *Report {
	report := &Report{
		Targets: targets,
		Summary: Summary{Targets: len(targets)},
		Metadata: Metadata{
			Mode:       "scan",
			Checker:    checkerName,
			ConfigFile: configFile,
		},
	}
	for _, t := range targets {
		if t.Problem != "" {
			report.Summary.Problems++
		}
	}
	return report
}

// HasChanges returns true if the run edited any line.
func (r *Report) HasChanges() bool {
	return r.Summary.LinesChanged > 0
}
