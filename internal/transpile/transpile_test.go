package transpile_test

import (
	"strings"
	"testing"

	"pype/internal/transpile"
)

func TestTranspileScenarios(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "if else blocks",
			in:   `if 's' in _ { out(_) } else { err(_) }`,
			want: "if 's' in _:\n    out(_)\nelse:\n    err(_)\n",
		},
		{
			name: "dict after assignment",
			in:   `x = {'a': 1}`,
			want: `x = {'a': 1}`,
		},
		{
			name: "semicolons",
			in:   "a;b;c",
			want: "a\nb\nc",
		},
		{
			name: "plain call",
			in:   "print _.upper()",
			want: "print _.upper()",
		},
		{
			name: "escaped quote inside string",
			in:   `print "a\"b"`,
			want: `print "a\"b"`,
		},
		{
			name: "spaces around semicolon",
			in:   "a ; b ;  c",
			want: "a\nb\nc",
		},
		{
			name: "nested blocks",
			in:   "for x in y { if x { a; b } }",
			want: "for x in y:\n    if x:\n        a\n        b\n\n",
		},
		{
			name: "comparison is not a declaration",
			in:   "if a == b { c }",
			want: "if a == b:\n    c\n",
		},
		{
			name: "declaration flag ends after value",
			in:   "x = 1; if x { y }",
			want: "x = 1\nif x:\n    y\n",
		},
		{
			name: "dict inside call",
			in:   "f({1: 2}); g()",
			want: "f({1: 2})\ng()",
		},
		{
			name: "dict inside list",
			in:   "l.append([{'k': v}])",
			want: "l.append([{'k': v}])",
		},
		{
			name: "empty dict",
			in:   "d = {}",
			want: "d = {}",
		},
		{
			name: "nested dict",
			in:   "d = {'a': {'b': 1}}; d",
			want: "d = {'a': {'b': 1}}\nd",
		},
		{
			name: "braces inside string",
			in:   `print("{;}")`,
			want: `print("{;}")`,
		},
		{
			name: "other quote inside string",
			in:   `s = 'a"b'; t`,
			want: "s = 'a\"b'\nt",
		},
		{
			name: "escaped brace",
			in:   `a \{ b`,
			want: `a \{ b`,
		},
		{
			name: "literal newline is re-indented",
			in:   "a {b\nc}",
			want: "a:\n    b\n    c\n",
		},
		{
			name: "backslash pair keeps quote open",
			in:   `print "a\\" { x }`,
			want: `print "a\\" { x }`,
		},
		{
			name: "escaped space before semicolon",
			in:   `a\ ;b`,
			want: "a\\ \nb",
		},
		{
			name: "escaped space before block",
			in:   `f\  { x }`,
			want: "f\\ :\n    x\n",
		},
		{
			name: "non-ascii passes through",
			in:   "if 'ü' in _ { out('ß') }",
			want: "if 'ü' in _:\n    out('ß')\n",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transpile.Transpile(tt.in); got != tt.want {
				t.Errorf("Transpile(%q)\n got: %q\nwant: %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTranspileIdentityWithoutBraces(t *testing.T) {
	inputs := []string{
		"print _.upper()",
		"x = [1, 2, 3]",
		"out(len(_) * 2)",
		`err("a (b [c")`,
		"a == b and c != d",
		`s = "it's"`,
		"   leading and trailing   ",
	}
	for _, in := range inputs {
		if got := transpile.Transpile(in); got != in {
			t.Errorf("Transpile(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestTranspileBraceBalance(t *testing.T) {
	in := "if a { if b { c } ; d } ; e"
	res := transpile.Run(in)
	if res.State.IndentLevel != 0 {
		t.Fatalf("indent level = %d, want 0", res.State.IndentLevel)
	}
	if !res.State.Balanced() {
		t.Fatalf("state %v should be balanced", res.State)
	}
	if n := strings.Count(res.Output, ":\n"); n != 2 {
		t.Errorf("got %d block openers in %q, want 2", n, res.Output)
	}

	lines := strings.Split(res.Output, "\n")
	want := []string{"if a:", "    if b:", "        c", "", "    d", "", "e"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestTranspileQuoteOpacity(t *testing.T) {
	for _, quoted := range []string{`"{ ( [ ; ] ) }"`, `'}}}{{{'`, `")];"`} {
		res := transpile.Run("x(" + quoted + ")")
		st := res.State
		if st.IndentLevel != 0 || st.ParenDepth != 0 || st.BracketDepth != 0 || st.DictDepth != 0 {
			t.Errorf("quoted %s changed counters: %v", quoted, st)
		}
		if res.Output != "x("+quoted+")" {
			t.Errorf("quoted %s rewritten to %q", quoted, res.Output)
		}
	}
}

func TestTranspileDictAfterAssignment(t *testing.T) {
	for _, in := range []string{"x={", "x = {", "x =   {", "x = {\n"} {
		res := transpile.Run(in)
		if res.State.DictDepth != 1 || res.State.IndentLevel != 0 {
			t.Errorf("Run(%q) state %v, want a dict opener", in, res.State)
		}
	}
}

func TestTranspileUnbalanced(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		balanced bool
	}{
		{in: "}} a", want: "\n\na", balanced: false},
		{in: "if a { b", want: "if a:\n    b", balanced: false},
		{in: `x("`, want: `x("`, balanced: false},
		{in: "a[0", want: "a[0", balanced: false},
		{in: "a; b", want: "a\nb", balanced: true},
	}
	for _, tt := range tests {
		res := transpile.Run(tt.in)
		if res.Output != tt.want {
			t.Errorf("Run(%q).Output = %q, want %q", tt.in, res.Output, tt.want)
		}
		if res.State.Balanced() != tt.balanced {
			t.Errorf("Run(%q).State.Balanced() = %v (%v), want %v", tt.in, res.State.Balanced(), res.State, tt.balanced)
		}
	}
}

func TestStateString(t *testing.T) {
	if s := (transpile.State{}).String(); s != "balanced" {
		t.Errorf("zero state = %q", s)
	}
	st := transpile.State{QuoteOpen: true, QuoteChar: '"', ParenDepth: 1, IndentLevel: -1}
	if s := st.String(); s != `quote=" paren=1 indent=-1` {
		t.Errorf("state = %q", s)
	}
}

func BenchmarkTranspile(b *testing.B) {
	src := strings.Repeat(`if 's' in _ { out(_.upper()) } else { d = {'k': [1, 2]}; err(d) }; `, 64)
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = transpile.Transpile(src)
	}
}
