// Package diagtest builds checker output for tests.
package diagtest

import (
	"encoding/json"
	"strings"

	"github.com/ccollicutt/typemigrate/pkg/diagnostic"
)

// Option adjusts a Record built by New.
type Option func(*diagnostic.Record)

// WithChild appends a child message.
func WithChild(message string) Option {
	return func(r *diagnostic.Record) {
		r.Message.Children = append(r.Message.Children, diagnostic.Child{
			Level:   "help",
			Message: message,
		})
	}
}

// WithLeadingSpan inserts a less specific span before the primary one.
func WithLeadingSpan(file string, line int, text string) Option {
	return func(r *diagnostic.Record) {
		r.Message.Spans = append([]diagnostic.Span{span(file, line, text)}, r.Message.Spans...)
	}
}

// WithMessage sets the diagnostic's headline.
func WithMessage(message string) Option {
	return func(r *diagnostic.Record) {
		r.Message.Message = message
	}
}

// New returns a compiler-message record whose primary span points at the
// given file and line with the given excerpt.
func New(file string, line int, text string, opts ...Option) *diagnostic.Record {
	r := &diagnostic.Record{
		Reason:       diagnostic.ReasonCompilerMessage,
		PackageID:    "demo 0.1.0 (path+file:///work/demo)",
		ManifestPath: "/work/demo/Cargo.toml",
		Target: diagnostic.Target{
			Kind:       []string{"lib"},
			CrateTypes: []string{"lib"},
			Name:       "demo",
			SrcPath:    "/work/demo/src/lib.rs",
			Edition:    "2021",
			Doc:        true,
			Doctest:    true,
			Test:       true,
		},
		Message: diagnostic.Message{
			Rendered: "error[E0308]: mismatched types\n",
			Code: diagnostic.Code{
				Code:        "E0308",
				Explanation: "Expected type did not match the received type.\n",
			},
			Level:   "error",
			Message: "mismatched types",
			Spans:   []diagnostic.Span{span(file, line, text)},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Line encodes a record as one line of checker output.
func Line(r *diagnostic.Record) string {
	data, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Stream joins records into checker output, interleaved with the kinds of
// lines a real checker run also prints.
func Stream(records ...*diagnostic.Record) string {
	var sb strings.Builder
	sb.WriteString(`{"reason":"compiler-artifact","package_id":"dep 1.0.0","target":{"name":"dep"}}` + "\n")
	for _, r := range records {
		sb.WriteString(Line(r))
		sb.WriteString("\n")
	}
	sb.WriteString(`{"reason":"build-finished","success":false}` + "\n")
	return sb.String()
}

func span(file string, line int, text string) diagnostic.Span {
	return diagnostic.Span{
		FileName:    file,
		LineStart:   line,
		LineEnd:     line,
		ColumnStart: 1,
		ColumnEnd:   len(text) + 1,
		IsPrimary:   true,
		Text: []diagnostic.SpanText{{
			HighlightStart: 1,
			HighlightEnd:   len(text) + 1,
			Text:           text,
		}},
	}
}
