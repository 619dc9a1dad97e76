package transpile

import "strings"

// IndentWidth is the number of spaces per indentation level.
const IndentWidth = 4

// emitter accumulates output and re-applies indentation after every chunk
// that ends in a newline.
type emitter struct {
	buf []byte
	// keep is the length of buf that emitSynthetic must not trim, so an
	// escaped space survives.
	keep int
}

func newEmitter(sizeHint int) *emitter {
	return &emitter{buf: make([]byte, 0, sizeHint)}
}

func (e *emitter) emit(chunk string, level int) {
	e.buf = append(e.buf, chunk...)
	if strings.HasSuffix(chunk, "\n") {
		e.buf = appendIndent(e.buf, level)
	}
}

// emitEscaped writes the rune after a backslash.
func (e *emitter) emitEscaped(chunk string, level int) {
	e.buf = append(e.buf, chunk...)
	e.keep = len(e.buf)
	if strings.HasSuffix(chunk, "\n") {
		e.buf = appendIndent(e.buf, level)
	}
}

// emitSynthetic writes a chunk that replaces a brace or semicolon. Spaces left
// dangling before it are dropped first.
func (e *emitter) emitSynthetic(chunk string, level int) {
	end := len(e.buf)
	for end > e.keep && e.buf[end-1] == ' ' {
		end--
	}
	e.buf = e.buf[:end]
	e.emit(chunk, level)
}

func (e *emitter) String() string {
	return string(e.buf)
}

// appendIndent clamps negative levels to zero; unbalanced input may close
// more blocks than it opened.
func appendIndent(dst []byte, level int) []byte {
	for i := 0; i < level*IndentWidth; i++ {
		dst = append(dst, ' ')
	}
	return dst
}
