package engine

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
	"go.starlark.net/starlark"
)

const exitLocal = "pype.exit"

// ExitError is returned when user code calls exit().
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// exit(code=0). A string argument is written to stderr and exits with 1.
func (env *Environment) exit(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var arg starlark.Value = starlark.MakeInt(0)
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &arg); err != nil {
		return nil, err
	}

	code := 1
	switch v := arg.(type) {
	case starlark.String:
		env.FlushStdout()
		fmt.Fprintln(env.Stderr, string(v))
	case starlark.NoneType:
		code = 0
	default:
		n, err := starlark.AsInt32(arg)
		if err != nil {
			return nil, fmt.Errorf("exit: %w", err)
		}
		code = clampExitCode(n)
	}

	e := &ExitError{Code: code}
	thread.SetLocal(exitLocal, e)
	return nil, e
}

// clampExitCode keeps codes in the range a process can report.
func clampExitCode(n int) int {
	c, err := safecast.Conv[uint8](n)
	if err != nil {
		return 1
	}
	return int(c)
}

// exitFrom recovers the ExitError of a run, if user code called exit().
func exitFrom(thread *starlark.Thread, err error) (*ExitError, bool) {
	if e, ok := thread.Local(exitLocal).(*ExitError); ok {
		return e, true
	}
	var e *ExitError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
