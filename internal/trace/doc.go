// Package trace records what pype does while it turns a one-liner into a
// program and runs it over stdin.
//
// Enable it from the command line:
//
//	pype --trace=- --trace-level=phase 'print(_)'
//
// New returns Nop when tracing is off. Otherwise the tracer streams events
// (--trace-mode=stream), keeps the last --trace-ring-size of them for
// DumpRing (ring), or both. At --trace-level=error only the ring is kept and
// pype dumps it when a run fails.
//
// Levels are off, error, phase, detail and debug. Events carry a Scope:
// ScopeDriver for CLI steps, ScopePass for assemble/compile/execute and
// ScopeFragment for the transpilation of one fragment.
package trace
