package output

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions

	header  *color.Color
	added   *color.Color
	removed *color.Color
	problem *color.Color
	dim     *color.Color
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	f := &TextFormatter{
		opts:    opts,
		header:  color.New(color.Bold),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		problem: color.New(color.FgYellow),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{f.header, f.added, f.removed, f.problem, f.dim} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	switch {
	case report.Metadata.Mode == "scan":
		return f.formatScan(report, w)
	case f.opts.Quiet:
		return f.formatQuiet(report, w)
	default:
		return f.formatFull(report, w)
	}
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "typemigrate: %d passes, %d lines changed in %d files\n",
		report.Summary.PassesRun,
		report.Summary.LinesChanged,
		report.Summary.FilesChanged)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	f.header.Fprintln(w, "=== typemigrate ===")
	fmt.Fprintln(w)

	for _, pass := range report.Passes {
		f.formatPass(&pass, w)
	}

	fmt.Fprintln(w, "---")
	if report.HasChanges() {
		fmt.Fprintf(w, "Summary: %d passes, %d lines changed in %d files\n",
			report.Summary.PassesRun,
			report.Summary.LinesChanged,
			report.Summary.FilesChanged)
	} else {
		f.problem.Fprintf(w, "Summary: %d passes, nothing to rewrite\n", report.Summary.PassesRun)
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Checker: %s\n", report.Metadata.Checker)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatPass(pass *PassReport, w io.Writer) {
	f.header.Fprintf(w, "[PASS %d]", pass.Number)
	fmt.Fprintf(w, " %d diagnostics, %d lines indexed", pass.Decoded, pass.Indexed)
	if pass.Dropped > 0 {
		fmt.Fprintf(w, ", %d duplicates", pass.Dropped)
	}
	if pass.Excluded > 0 {
		fmt.Fprintf(w, ", %d excluded", pass.Excluded)
	}
	fmt.Fprintln(w)

	if len(pass.Files) == 0 {
		fmt.Fprintln(w, "  No changes")
		fmt.Fprintln(w)
		return
	}

	for _, file := range pass.Files {
		fmt.Fprintf(w, "  %s: %d line(s)\n", file.Path, len(file.Changes))
		if !f.opts.Verbose {
			continue
		}
		for _, c := range file.Changes {
			f.dim.Fprintf(w, "    %d (%s)\n", c.Line, c.Kind)
			f.removed.Fprintf(w, "    - %s\n", c.Before)
			f.added.Fprintf(w, "    + %s\n", c.After)
		}
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatScan(report *Report, w io.Writer) error {
	if !f.opts.Quiet {
		for _, t := range report.Targets {
			fmt.Fprintf(w, "%s:%d [%s] %s", t.File, t.Line, t.Kind, t.Excerpt)
			if t.Type != "" {
				f.added.Fprintf(w, " -> %s", t.Type)
			}
			fmt.Fprintln(w)
			if t.Problem != "" {
				f.problem.Fprintf(w, "  ! %s\n", t.Problem)
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d lines to migrate, %d with problems\n",
		report.Summary.Targets, report.Summary.Problems)
	return err
}

// Warn prints an advisory message, in yellow when colors are enabled.
func Warn(w io.Writer, opts FormatOptions, format string, args ...any) {
	c := color.New(color.FgYellow)
	if opts.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	c.Fprintf(w, "warning: "+format+"\n", args...)
}
