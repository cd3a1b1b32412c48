// Package diagnostic decodes the line-delimited JSON messages emitted by a
// type checker running with structured message output.
package diagnostic

import (
	"errors"
	"fmt"
)

// ReasonCompilerMessage is the reason carried by records that describe a
// compiler finding. Records with any other reason are discarded.
const ReasonCompilerMessage = "compiler-message"

var (
	// ErrNoPrimarySpan is returned when a compiler message carries no spans.
	ErrNoPrimarySpan = errors.New("compiler message has no spans")

	// ErrNoSpanText is returned when the primary span has no source excerpt.
	ErrNoSpanText = errors.New("primary span has no text")
)

// Record is one decoded compiler-message line of checker output.
type Record struct {
	Reason       string  `json:"reason"`
	PackageID    string  `json:"package_id"`
	ManifestPath string  `json:"manifest_path"`
	Target       Target  `json:"target"`
	Message      Message `json:"message"`
}

// Target describes the build target the message was produced for.
type Target struct {
	Kind       []string `json:"kind"`
	CrateTypes []string `json:"crate_types"`
	Name       string   `json:"name"`
	SrcPath    string   `json:"src_path"`
	Edition    string   `json:"edition"`
	Doc        bool     `json:"doc"`
	Doctest    bool     `json:"doctest"`
	Test       bool     `json:"test"`
}

// Message is the diagnostic itself.
type Message struct {
	// Rendered is the human-readable diagnostic. It is kept for logging only.
	Rendered string  `json:"rendered"`
	Children []Child `json:"children"`
	Code     Code    `json:"code"`
	Level    string  `json:"level"`
	Message  string  `json:"message"`
	Spans    []Span  `json:"spans"`
}

// Child is a sub-message (note, help) attached to a diagnostic.
type Child struct {
	Children []Child `json:"children"`
	Level    string  `json:"level"`
	Message  string  `json:"message"`
	Spans    []Span  `json:"spans"`
}

// Code identifies the diagnostic class.
type Code struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// Span is a location within one source file.
type Span struct {
	ByteStart   int        `json:"byte_start"`
	ByteEnd     int        `json:"byte_end"`
	ColumnStart int        `json:"column_start"`
	ColumnEnd   int        `json:"column_end"`
	FileName    string     `json:"file_name"`
	IsPrimary   bool       `json:"is_primary"`
	LineStart   int        `json:"line_start"`
	LineEnd     int        `json:"line_end"`
	Text        []SpanText `json:"text"`
}

// SpanText is the excerpt of one source line covered by a span.
type SpanText struct {
	HighlightStart int    `json:"highlight_start"`
	HighlightEnd   int    `json:"highlight_end"`
	Text           string `json:"text"`
}

// PrimarySpan returns the last span of the message, which is the most
// specific location the checker reported.
func (r *Record) PrimarySpan() (*Span, error) {
	spans := r.Message.Spans
	if len(spans) == 0 {
		return nil, fmt.Errorf("%s: %w", r.Message.Message, ErrNoPrimarySpan)
	}
	return &spans[len(spans)-1], nil
}

// Excerpt returns the source text of the primary span.
func (r *Record) Excerpt() (string, error) {
	span, err := r.PrimarySpan()
	if err != nil {
		return "", err
	}
	return span.Excerpt()
}

// FirstChildMessage returns the text of the first child message, if any.
func (r *Record) FirstChildMessage() (string, bool) {
	if len(r.Message.Children) == 0 {
		return "", false
	}
	return r.Message.Children[0].Message, true
}

// Excerpt returns the literal source text of the span's first line.
func (s *Span) Excerpt() (string, error) {
	if len(s.Text) == 0 {
		return "", fmt.Errorf("%s:%d: %w", s.FileName, s.LineStart, ErrNoSpanText)
	}
	return s.Text[0].Text, nil
}
