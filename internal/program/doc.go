// Package program turns the before, pipeline and after fragments into one
// Starlark program of the form
//
//	def pype(input_lines):
//	    <before>
//	    for _ in input_lines:
//	        _ = _.rstrip("\n")
//	        <pipeline>
//	    <after>
//
// Назначение: сборка программы и нумерованный листинг исходника.
// Не делает: исполнение (см. internal/engine).
// Зависимости: internal/transpile, internal/source, internal/trace.
package program
