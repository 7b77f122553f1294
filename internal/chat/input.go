package chat

import (
	"bufio"
	"context"
	"io"
)

// maxLineSize bounds a single operator line.
const maxLineSize = 1 << 20

// LineSource reads operator lines from an io.Reader on its own goroutine.
// Lines are handed out one at a time through Next, so sessions that run
// one after another can share a single source.
type LineSource struct {
	lines chan string
	err   error
}

// NewLineSource starts reading lines from r.
func NewLineSource(r io.Reader) *LineSource {
	s := &LineSource{lines: make(chan string)}
	go s.scan(r)
	return s
}

// Next blocks until a line is available.
// Returns io.EOF once the input is exhausted.
func (s *LineSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			if s.err != nil {
				return "", s.err
			}
			return "", io.EOF
		}
		return line, nil
	}
}

func (s *LineSource) scan(r io.Reader) {
	defer close(s.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
	s.err = scanner.Err()
}
