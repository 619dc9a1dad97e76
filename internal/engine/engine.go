package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"pype/internal/cache"
	"pype/internal/program"
	"pype/internal/trace"
)

// Filename is the name generated programs report in positions.
const Filename = "<pype>"

// ErrNoEntry means the program did not define the entry point function.
var ErrNoEntry = errors.New("program does not define " + program.EntryPoint + "()")

// Engine compiles and runs generated programs against an Environment.
type Engine struct {
	Env *Environment
	// Cache holds compiled programs; nil disables caching.
	Cache *cache.Cache
}

// New returns an engine over env.
func New(env *Environment, c *cache.Cache) *Engine {
	return &Engine{Env: env, Cache: c}
}

// Compile turns generated source into a Starlark program, going through the
// cache when one is configured.
func (e *Engine) Compile(ctx context.Context, src string) (*starlark.Program, error) {
	_, span := trace.Start(ctx, trace.ScopePass, "compile")

	key := cache.KeyFor(src, e.Env.Names())
	if data, ok, err := e.Cache.Get(key); err == nil && ok {
		if prog, err := starlark.CompiledProgram(bytes.NewReader(data)); err == nil {
			span.End("cache hit")
			return prog, nil
		}
	}

	_, prog, err := starlark.SourceProgramOptions(fileOptions, Filename, src, e.Env.Globals.Has)
	if err != nil {
		span.End("failed")
		return nil, err
	}

	if e.Cache != nil {
		var buf bytes.Buffer
		if err := prog.Write(&buf); err == nil {
			if err := e.Cache.Put(key, len(src), buf.Bytes()); err != nil {
				trace.Point(trace.FromContext(ctx), trace.ScopePass, "cache", err.Error(), span.ID())
			}
		}
	}
	span.End("compiled")
	return prog, nil
}

// Run compiles src and calls its entry point with the lines of input.
// Errors from user code are returned unchanged; a call to exit() comes back
// as *ExitError.
func (e *Engine) Run(ctx context.Context, src string, input io.Reader) error {
	prog, err := e.Compile(ctx, src)
	if err != nil {
		return err
	}

	_, span := trace.Start(ctx, trace.ScopePass, "execute")
	thread := e.Env.NewThread("pype")
	stop := cancelOnDone(ctx, thread)
	defer stop()

	globals, err := prog.Init(thread, e.Env.Globals)
	if err != nil {
		span.End("init failed")
		return e.finish(thread, err)
	}
	entry, ok := globals[program.EntryPoint].(starlark.Callable)
	if !ok {
		span.End("no entry point")
		return ErrNoEntry
	}

	in := newLines(input, e.Env.FlushStdout)
	_, err = starlark.Call(thread, entry, starlark.Tuple{in}, nil)
	span.WithExtra("lines", fmt.Sprint(in.Count()))
	if err != nil {
		span.End("failed")
		return e.finish(thread, err)
	}
	if readErr := in.Err(); readErr != nil {
		span.End("read failed")
		return fmt.Errorf("reading input: %w", readErr)
	}
	span.End("")
	return nil
}

func (e *Engine) finish(thread *starlark.Thread, err error) error {
	if exit, ok := exitFrom(thread, err); ok {
		return exit
	}
	return err
}

// cancelOnDone cancels the thread when ctx is done. The returned func
// releases the watcher.
func cancelOnDone(ctx context.Context, thread *starlark.Thread) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()
	return func() { close(done) }
}

// ErrorLine returns the 1-based line of the generated program an error
// points at, or 0 when it does not carry a position in it.
func ErrorLine(err error) int {
	var serr syntax.Error
	if errors.As(err, &serr) {
		return int(serr.Pos.Line)
	}
	var rerrs resolve.ErrorList
	if errors.As(err, &rerrs) && len(rerrs) > 0 {
		return int(rerrs[0].Pos.Line)
	}
	var eerr *starlark.EvalError
	if errors.As(err, &eerr) {
		for i := len(eerr.CallStack) - 1; i >= 0; i-- {
			if pos := eerr.CallStack[i].Pos; pos.Filename() == Filename {
				return int(pos.Line)
			}
		}
	}
	return 0
}
