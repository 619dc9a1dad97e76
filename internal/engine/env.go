package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"pype/internal/source"
	"pype/internal/trace"
)

// fileOptions enables the Python-ish constructs one-liners reach for.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Environment is everything predeclared for a generated program.
type Environment struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Globals starlark.StringDict
}

// NewEnvironment returns an environment with the output helpers, exit and
// the standard library modules.
func NewEnvironment(stdout, stderr io.Writer) *Environment {
	env := &Environment{Stdout: stdout, Stderr: stderr}
	out := starlark.NewBuiltin("out", env.writer(func() io.Writer { return env.Stdout }))
	errb := starlark.NewBuiltin("err", env.writer(func() io.Writer {
		// keep stdout and stderr in the order the program wrote them
		env.FlushStdout()
		return env.Stderr
	}))
	env.Globals = starlark.StringDict{
		"out":    out,
		"stdout": out,
		"err":    errb,
		"stderr": errb,
		"exit":   starlark.NewBuiltin("exit", env.exit),
		"math":   starlarkmath.Module,
		"time":   starlarktime.Module,
		"json":   starlarkjson.Module,
	}
	return env
}

// Names returns the sorted predeclared names.
func (env *Environment) Names() []string {
	return env.Globals.Keys()
}

// Define adds or replaces a predeclared name.
func (env *Environment) Define(name string, v starlark.Value) {
	env.Globals[name] = v
}

// FlushStdout flushes Stdout when it buffers.
func (env *Environment) FlushStdout() {
	if f, ok := env.Stdout.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}

// NewThread returns a thread whose print goes to Stdout.
func (env *Environment) NewThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(env.Stdout, msg)
		},
	}
}

// LoadInit executes the init file at path and makes its public globals
// (names not starting with "_") visible to programs. A missing file is not
// an error.
func (env *Environment) LoadInit(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	_, span := trace.Start(ctx, trace.ScopeDriver, "init")

	file, err := source.Load(path)
	if err != nil {
		span.End("unreadable")
		return err
	}
	thread := env.NewThread("init")
	globals, err := starlark.ExecFileOptions(fileOptions, thread, path, file.Content, env.Globals)
	if err != nil {
		span.End("failed")
		return fmt.Errorf("init file %s: %w", path, err)
	}

	n := 0
	for name, v := range globals {
		if strings.HasPrefix(name, "_") {
			continue
		}
		env.Globals[name] = v
		n++
	}
	span.WithExtra("names", fmt.Sprint(n)).End(path)
	return nil
}

func (env *Environment) writer(dst func() io.Writer) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var v starlark.Value
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
			return nil, err
		}
		if _, err := fmt.Fprintln(dst(), display(v)); err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return starlark.None, nil
	}
}

// display is str(v): strings print without quotes.
func display(v starlark.Value) string {
	if s, ok := starlark.AsString(v); ok {
		return s
	}
	return v.String()
}
