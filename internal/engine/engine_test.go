package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.starlark.net/starlark"

	"pype/internal/cache"
	"pype/internal/program"
)

type harness struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	env    *Environment
}

func newHarness() *harness {
	h := &harness{}
	h.env = NewEnvironment(&h.stdout, &h.stderr)
	return h
}

func (h *harness) run(t *testing.T, opts program.Options, input string) error {
	t.Helper()
	p, err := program.Assemble(context.Background(), opts)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return New(h.env, nil).Run(context.Background(), p.Source, strings.NewReader(input))
}

func TestRunPipeline(t *testing.T) {
	h := newHarness()
	err := h.run(t, program.Options{
		Pipeline: "if 's' in _ { out(_.upper()) } else { err(_) }",
		Trim:     true,
	}, "ls\nbin\nusr\n")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.stdout.String(); got != "LS\nUSR\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := h.stderr.String(); got != "bin\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestRunBeforeAfter(t *testing.T) {
	h := newHarness()
	err := h.run(t, program.Options{
		Before:   "l = []",
		Pipeline: "if 's' in _ { l.append(_) }",
		After:    "out(len(l))",
		Trim:     true,
	}, "ls\nbin\nusr")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.stdout.String(); got != "2\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunWithoutTrimKeepsNewline(t *testing.T) {
	h := newHarness()
	if err := h.run(t, program.Options{Pipeline: "out(repr(_))"}, "a\nb"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.stdout.String(); got != "\"a\\n\"\n\"b\"\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunPrintGoesToStdout(t *testing.T) {
	h := newHarness()
	if err := h.run(t, program.Options{Pipeline: "print(len(_))", Trim: true}, "abc\n"); err != nil {
		t.Fatal(err)
	}
	if h.stdout.String() != "3\n" {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestRunExit(t *testing.T) {
	h := newHarness()
	err := h.run(t, program.Options{
		Pipeline: "if _ == 'stop' { exit(3) }; out(_)",
		Trim:     true,
	}, "a\nstop\nb\n")
	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exit.Code != 3 {
		t.Errorf("code = %d", exit.Code)
	}
	if h.stdout.String() != "a\n" {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestRunExitMessage(t *testing.T) {
	h := newHarness()
	err := h.run(t, program.Options{Pipeline: "exit('bad line: ' + _)", Trim: true}, "x\n")
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("err = %v", err)
	}
	if h.stderr.String() != "bad line: x\n" {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestClampExitCode(t *testing.T) {
	for in, want := range map[int]int{0: 0, 7: 7, 255: 255, 256: 1, -1: 1} {
		if got := clampExitCode(in); got != want {
			t.Errorf("clampExitCode(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestLoadInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.star")
	init := "def shout(s):\n    return s.upper() + '!'\n\n_hidden = 1\n"
	if err := os.WriteFile(path, []byte(init), 0o600); err != nil {
		t.Fatal(err)
	}

	h := newHarness()
	if err := h.env.LoadInit(context.Background(), path); err != nil {
		t.Fatalf("LoadInit: %v", err)
	}
	if !h.env.Globals.Has("shout") {
		t.Fatal("shout should be predeclared")
	}
	if h.env.Globals.Has("_hidden") {
		t.Error("underscore names stay private to the init file")
	}

	if err := h.run(t, program.Options{Pipeline: "out(shout(_))", Trim: true}, "hey\n"); err != nil {
		t.Fatal(err)
	}
	if h.stdout.String() != "HEY!\n" {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestLoadInitMissingAndBroken(t *testing.T) {
	h := newHarness()
	if err := h.env.LoadInit(context.Background(), filepath.Join(t.TempDir(), "none.star")); err != nil {
		t.Errorf("missing init file: %v", err)
	}

	path := filepath.Join(t.TempDir(), "broken.star")
	if err := os.WriteFile(path, []byte("def (\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.env.LoadInit(context.Background(), path); err == nil {
		t.Error("broken init file must fail")
	}
}

func TestErrorLine(t *testing.T) {
	h := newHarness()
	err := h.run(t, program.Options{Pipeline: "if {", Trim: true}, "")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if line := ErrorLine(err); line != 5 {
		t.Errorf("syntax error line = %d (%v)", line, err)
	}

	err = h.run(t, program.Options{Pipeline: "out(1 // 0)", Trim: true}, "x\n")
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if line := ErrorLine(err); line != 5 {
		t.Errorf("runtime error line = %d (%v)", line, err)
	}

	if ErrorLine(errors.New("plain")) != 0 {
		t.Error("plain errors have no line")
	}
}

func TestRunNoEntry(t *testing.T) {
	h := newHarness()
	err := New(h.env, nil).Run(context.Background(), "x = 1\n", strings.NewReader(""))
	if !errors.Is(err, ErrNoEntry) {
		t.Errorf("err = %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	h := newHarness()
	p, err := program.Assemble(context.Background(), program.Options{Pipeline: "while True { pass }"})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := New(h.env, nil).Run(ctx, p.Source, strings.NewReader("x\n")); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRunUsesCache(t *testing.T) {
	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p, err := program.Assemble(context.Background(), program.Options{Pipeline: "out(_)", Trim: true})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		h := newHarness()
		if err := New(h.env, c).Run(context.Background(), p.Source, strings.NewReader("a\n")); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if h.stdout.String() != "a\n" {
			t.Errorf("run %d stdout = %q", i, h.stdout.String())
		}
	}
	if n, err := c.Len(); err != nil || n != 1 {
		t.Errorf("cache Len = %d, %v", n, err)
	}
}

func TestLinesSingleUse(t *testing.T) {
	l := newLines(strings.NewReader("a\nb\n"), nil)
	var v starlark.Value
	it := l.Iterate()
	var got []string
	for it.Next(&v) {
		got = append(got, string(v.(starlark.String)))
	}
	it.Done()
	if strings.Join(got, "|") != "a\n|b\n" {
		t.Errorf("lines = %q", got)
	}
	if l.Iterate().Next(&v) {
		t.Error("second iteration must be empty")
	}
	if l.Count() != 2 {
		t.Errorf("Count = %d", l.Count())
	}
}

// chunkReader returns one chunk per Read, like a pipe fed line by line.
type chunkReader struct{ chunks []string }

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestLinesFlushBeforeBlockingRead(t *testing.T) {
	tests := []struct {
		name    string
		input   io.Reader
		flushes int
	}{
		{"one line per read", &chunkReader{chunks: []string{"a\n", "b\n"}}, 3},
		{"everything buffered", strings.NewReader("a\nb\n"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flushes := 0
			l := newLines(tt.input, func() { flushes++ })
			var v starlark.Value
			it := l.Iterate()
			for it.Next(&v) {
			}
			if flushes != tt.flushes {
				t.Errorf("flushes = %d, want %d", flushes, tt.flushes)
			}
		})
	}
}

func TestErrKeepsOrderWithBufferedStdout(t *testing.T) {
	var log bytes.Buffer
	stdout := bufio.NewWriter(&log)
	env := NewEnvironment(stdout, &log)
	p, err := program.Assemble(context.Background(), program.Options{Pipeline: "out('o'); err('e')", Trim: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := New(env, nil).Run(context.Background(), p.Source, strings.NewReader("x\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if log.String() != "o\ne\n" {
		t.Errorf("output order = %q", log.String())
	}
}

func TestDisplay(t *testing.T) {
	if display(starlark.String("x")) != "x" {
		t.Error("strings print bare")
	}
	list := starlark.NewList([]starlark.Value{starlark.MakeInt(1), starlark.String("a")})
	if got := display(list); got != `[1, "a"]` {
		t.Errorf("display(list) = %q", got)
	}
}
