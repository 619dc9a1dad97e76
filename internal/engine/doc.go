// Package engine runs assembled programs on the Starlark interpreter.
//
// User code sees an explicit Environment rather than whatever happens to be
// global: the output helpers (out, stdout, err, stderr), exit, the math, time
// and json modules, and the public globals of the user's init file.
package engine
