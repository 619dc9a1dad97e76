package transpile

import "unicode/utf8"

// Sentinel stands in for the missing neighbour of the first and last rune.
const Sentinel rune = -1

// Window is the view of one input rune together with its neighbours.
type Window struct {
	Prev rune
	Cur  rune
	Next rune
	// Off and Width locate Cur in the source in bytes.
	Off   int
	Width int
}

// Stream yields one Window per rune of the source. It cannot be rewound.
type Stream struct {
	src  string
	off  int
	prev rune
}

// NewStream creates a stream positioned before the first rune of src.
func NewStream(src string) *Stream {
	return &Stream{src: src, prev: Sentinel}
}

// EOF reports whether every rune has been consumed.
func (s *Stream) EOF() bool {
	return s.off >= len(s.src)
}

// Next returns the next window, or false once the source is exhausted.
func (s *Stream) Next() (Window, bool) {
	if s.EOF() {
		return Window{}, false
	}
	cur, width := utf8.DecodeRuneInString(s.src[s.off:])
	next := Sentinel
	if s.off+width < len(s.src) {
		next, _ = utf8.DecodeRuneInString(s.src[s.off+width:])
	}
	w := Window{
		Prev:  s.prev,
		Cur:   cur,
		Next:  next,
		Off:   s.off,
		Width: width,
	}
	s.prev = cur
	s.off += width
	return w, true
}

// Raw returns the exact source bytes covered by w.
func (s *Stream) Raw(w Window) string {
	return s.src[w.Off : w.Off+w.Width]
}

// Windows collects every window of src. Handy in tests and debugging.
func Windows(src string) []Window {
	s := NewStream(src)
	out := make([]Window, 0, utf8.RuneCountInString(src))
	for {
		w, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, w)
	}
}
