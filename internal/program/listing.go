package program

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ListingOptions controls Listing output.
type ListingOptions struct {
	Color bool
	// Highlight marks a 1-based line, e.g. the one an error points at; 0 for none.
	Highlight int
}

// Listing writes src with right-aligned 1-based line numbers:
//
//	  1: def pype(input_lines):
//	  2:     for _ in input_lines:
func Listing(w io.Writer, src string, opts ListingOptions) error {
	gutter := color.New(color.FgHiBlack)
	mark := color.New(color.FgRed, color.Bold)
	if opts.Color {
		gutter.EnableColor()
		mark.EnableColor()
	} else {
		gutter.DisableColor()
		mark.DisableColor()
	}

	lines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	for i, line := range lines {
		num := gutter.Sprintf(" %3d:", i+1)
		if i+1 == opts.Highlight {
			num = mark.Sprintf(">%3d:", i+1)
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", num, line); err != nil {
			return err
		}
	}
	return nil
}
