package transpile

// Result is the output of one transpilation together with the state the scan
// finished in.
type Result struct {
	Output string
	State  State
}

// Transpile converts a brace/semicolon fragment into indented source. It never
// fails; unbalanced input produces best-effort output.
func Transpile(fragment string) string {
	return Run(fragment).Output
}

// Run is Transpile that also exposes the final parse state.
func Run(fragment string) Result {
	var st State
	out := newEmitter(len(fragment) + len(fragment)/4)
	stream := NewStream(fragment)

	for {
		w, ok := stream.Next()
		if !ok {
			break
		}

		if st.PendingTrim {
			if w.Cur == ' ' {
				continue
			}
			st.PendingTrim = false
		}

		step(&st, out, w, stream.Raw(w))

		if w.Cur != '=' && w.Cur != ' ' {
			st.InDeclaration = false
		}
	}

	return Result{Output: out.String(), State: st}
}

// step applies the first matching rule for one window.
func step(st *State, out *emitter, w Window, raw string) {
	switch {
	case w.Prev == '\\':
		// escaped rune never opens or closes anything
		out.emitEscaped(raw, st.IndentLevel)

	case w.Cur == '\'' || w.Cur == '"':
		switch {
		case !st.QuoteOpen:
			st.QuoteOpen = true
			st.QuoteChar = w.Cur
		case st.QuoteChar == w.Cur:
			st.QuoteOpen = false
			st.QuoteChar = 0
		}
		out.emit(raw, st.IndentLevel)

	case st.QuoteOpen:
		out.emit(raw, st.IndentLevel)

	case w.Cur == '(':
		st.ParenDepth++
		out.emit(raw, st.IndentLevel)

	case w.Cur == ')':
		st.ParenDepth--
		out.emit(raw, st.IndentLevel)

	case w.Cur == '[':
		st.BracketDepth++
		out.emit(raw, st.IndentLevel)

	case w.Cur == ']':
		st.BracketDepth--
		out.emit(raw, st.IndentLevel)

	case w.Cur == '=' && w.Prev != '=' && w.Next != '=':
		st.InDeclaration = true
		out.emit(raw, st.IndentLevel)

	case w.Cur == '{':
		if st.literalBrace(true) {
			st.DictDepth++
			out.emit(raw, st.IndentLevel)
			return
		}
		st.IndentLevel++
		out.emitSynthetic(":\n", st.IndentLevel)
		st.PendingTrim = true

	case w.Cur == '}':
		if st.literalBrace(false) {
			st.DictDepth--
			out.emit(raw, st.IndentLevel)
			return
		}
		st.IndentLevel--
		out.emitSynthetic("\n", st.IndentLevel)
		st.PendingTrim = true

	case w.Cur == ';':
		out.emitSynthetic("\n", st.IndentLevel)
		st.PendingTrim = true

	default:
		out.emit(raw, st.IndentLevel)
	}
}
