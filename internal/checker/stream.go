package checker

import (
	"context"
	"io"
)

// Stream hands out a diagnostic stream produced elsewhere, typically
// standard input fed by `cargo check --message-format json | typemigrate`.
// It can be consumed once.
type Stream struct {
	name     string
	reader   io.Reader
	consumed bool
}

// NewStream creates a single-shot checker over r.
func NewStream(name string, r io.Reader) *Stream {
	return &Stream{name: name, reader: r}
}

// Name returns the stream's name.
func (s *Stream) Name() string {
	return s.name
}

// Check returns the stream the first time and ErrExhausted afterwards.
func (s *Stream) Check(ctx context.Context) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.consumed {
		return nil, ErrExhausted
	}
	s.consumed = true
	return s.reader, nil
}
