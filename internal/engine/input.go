package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"go.starlark.net/starlark"
)

// lines is the input_lines argument of the entry point: a single-use
// iterable over the lines of a reader. Each element keeps its trailing
// newline, like iterating a file object.
type lines struct {
	r    *bufio.Reader
	used bool
	n    int
	err  error
	// flush runs before any read that may block, so output for the lines
	// seen so far is visible while waiting for more input.
	flush func()
}

var _ starlark.Iterable = (*lines)(nil)

func newLines(r io.Reader, flush func()) *lines {
	return &lines{r: bufio.NewReaderSize(r, 64<<10), flush: flush}
}

func (l *lines) String() string        { return "<input_lines>" }
func (l *lines) Type() string          { return "input_lines" }
func (l *lines) Freeze()               {}
func (l *lines) Truth() starlark.Bool  { return starlark.True }
func (l *lines) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: input_lines") }

// Iterate hands out the stream once; a second loop sees no lines.
func (l *lines) Iterate() starlark.Iterator {
	if l.used {
		return exhausted{}
	}
	l.used = true
	return &lineIterator{src: l}
}

// Err reports the first read error other than EOF.
func (l *lines) Err() error { return l.err }

// Count is the number of lines handed out so far.
func (l *lines) Count() int { return l.n }

type lineIterator struct {
	src *lines
}

func (it *lineIterator) Next(p *starlark.Value) bool {
	if it.src.err != nil {
		return false
	}
	if it.src.flush != nil && it.src.r.Buffered() == 0 {
		it.src.flush()
	}
	line, err := it.src.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		it.src.err = err
	}
	if line == "" {
		return false
	}
	it.src.n++
	*p = starlark.String(line)
	return true
}

func (it *lineIterator) Done() {}

type exhausted struct{}

func (exhausted) Next(*starlark.Value) bool { return false }
func (exhausted) Done()                     {}
