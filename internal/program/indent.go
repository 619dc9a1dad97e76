package program

import (
	"strings"

	"pype/internal/transpile"
)

// Indent prefixes every line of text with levels indentation steps.
func Indent(text string, levels int) string {
	if levels <= 0 {
		return text
	}
	prefix := strings.Repeat(" ", levels*transpile.IndentWidth)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// tidy drops trailing blank lines and trailing spaces a transpiled fragment
// ends with after its last block closes.
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
