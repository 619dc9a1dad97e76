// Package transpile rewrites brace/semicolon shorthand into whitespace-indented
// source. A block opened with `{` becomes a trailing `:` plus a deeper indent,
// `}` closes the block, and `;` separates statements. Quoted strings, call
// arguments, list literals and dict literals pass through untouched.
//
// The pass is a single scan over the input with one rune of lookbehind and one
// of lookahead. There is no tokenizer and no AST; malformed input simply yields
// odd output and a State whose counters did not return to zero.
//
// Назначение: превратить однострочный фрагмент с фигурными скобками в код с
// отступами.
// Не делает: валидацию целевого языка, сборку программы, IO.
// Зависимости: нет.
package transpile
