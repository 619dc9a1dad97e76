package transpile

import (
	"fmt"
	"strings"
)

// State is the parse context of one Transpile call. The counters are
// independent guards, not alternatives: a dict literal inside a call keeps
// both DictDepth and ParenDepth above zero.
type State struct {
	QuoteOpen bool
	// QuoteChar is the delimiter that opened the current string; zero when
	// QuoteOpen is false.
	QuoteChar rune

	ParenDepth   int
	BracketDepth int
	DictDepth    int

	InDeclaration bool
	IndentLevel   int
	// PendingTrim drops spaces right after a synthetic newline.
	PendingTrim bool
}

// literalBrace reports whether a curly brace at this point belongs to a dict
// literal rather than a block. The declaration flag only matters for openers.
func (st *State) literalBrace(opening bool) bool {
	if st.DictDepth > 0 || st.QuoteOpen || st.ParenDepth > 0 || st.BracketDepth > 0 {
		return true
	}
	return opening && st.InDeclaration
}

// Balanced reports whether every string, bracket and block opened in the
// fragment was closed again.
func (st State) Balanced() bool {
	return !st.QuoteOpen &&
		st.ParenDepth == 0 &&
		st.BracketDepth == 0 &&
		st.DictDepth == 0 &&
		st.IndentLevel == 0
}

// String summarises the non-zero parts of the state, e.g. "quote=\" paren=1".
func (st State) String() string {
	var parts []string
	if st.QuoteOpen {
		parts = append(parts, fmt.Sprintf("quote=%c", st.QuoteChar))
	}
	if st.ParenDepth != 0 {
		parts = append(parts, fmt.Sprintf("paren=%d", st.ParenDepth))
	}
	if st.BracketDepth != 0 {
		parts = append(parts, fmt.Sprintf("bracket=%d", st.BracketDepth))
	}
	if st.DictDepth != 0 {
		parts = append(parts, fmt.Sprintf("dict=%d", st.DictDepth))
	}
	if st.IndentLevel != 0 {
		parts = append(parts, fmt.Sprintf("indent=%d", st.IndentLevel))
	}
	if len(parts) == 0 {
		return "balanced"
	}
	return strings.Join(parts, " ")
}
