package diagnostic

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// Source provides an iterator over decoded compiler messages.
// Implementations are for sequential use only.
type Source interface {
	// Next returns the next compiler-message record.
	// Returns io.EOF when the input is exhausted.
	// Lines that do not decode to a compiler message are skipped.
	Next(ctx context.Context) (*Record, error)
}

// Stats counts what a Decoder has seen so far.
type Stats struct {
	// Lines is the number of input lines read.
	Lines int

	// Kept is the number of compiler-message records returned.
	Kept int

	// Skipped is the number of lines discarded as irrelevant or malformed.
	Skipped int
}

// Decoder implements Source over line-delimited checker output. Lines have
// no length limit; compiler messages embed their rendered text and can be
// very long.
type Decoder struct {
	reader *bufio.Reader
	done   bool
	stats  Stats
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next compiler-message record.
func (d *Decoder) Next(ctx context.Context) (*Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, err := d.readLine()
		if err != nil {
			return nil, err
		}
		d.stats.Lines++

		rec, ok := Decode(line)
		if !ok {
			d.stats.Skipped++
			continue
		}
		d.stats.Kept++
		return rec, nil
	}
}

// readLine returns the next line without its terminator, or io.EOF once the
// input is exhausted. A final line without a newline is still returned.
func (d *Decoder) readLine() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}
	line, err := d.reader.ReadBytes('\n')
	if errors.Is(err, io.EOF) {
		d.done = true
		if len(line) == 0 {
			return nil, io.EOF
		}
	} else if err != nil {
		return nil, fmt.Errorf("reading diagnostics: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// Stats returns the counters accumulated so far.
func (d *Decoder) Stats() Stats {
	return d.stats
}
