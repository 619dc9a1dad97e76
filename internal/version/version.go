package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the pype CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Styled colours the major, minor and patch parts of v. Anything after the
// patch number (e.g. "-dev") and versions that are not dotted triples are
// left as they are.
func Styled(v string, useColor bool) string {
	if !useColor {
		return v
	}
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return v
	}
	patch, suffix := parts[2], ""
	if i := strings.IndexAny(patch, "-+"); i >= 0 {
		patch, suffix = patch[:i], patch[i:]
	}

	paint := func(c *color.Color, s string) string {
		c.EnableColor()
		return c.Sprint(s)
	}
	return paint(versionMajorColor, parts[0]) + "." +
		paint(versionMinorColor, parts[1]) + "." +
		paint(versionPatchColor, patch) + suffix
}
