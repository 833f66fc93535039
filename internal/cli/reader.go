package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// NonBlockingReader reads lines from a terminal without ignoring cancellation.
// A single goroutine scans the input on first use; a line read after its
// caller gave up is kept for the next ReadLine.
type NonBlockingReader struct {
	source io.Reader
	lines  chan string
	err    error
	start  sync.Once
}

// NewNonBlockingReader creates a new non-blocking reader.
func NewNonBlockingReader(reader io.Reader) *NonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}
	return &NonBlockingReader{source: reader, lines: make(chan string)}
}

func (r *NonBlockingReader) pump() {
	scanner := bufio.NewScanner(r.source)
	for scanner.Scan() {
		r.lines <- scanner.Text()
	}
	r.err = scanner.Err()
	if r.err == nil {
		r.err = io.EOF
	}
	close(r.lines)
}

// ReadLine returns the next line with surrounding whitespace trimmed. A final
// line without a newline is returned as is; io.EOF follows once input ends.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.start.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case line, ok := <-r.lines:
		if !ok {
			return "", r.err
		}
		return strings.TrimSpace(line), nil
	}
}
