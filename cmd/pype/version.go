package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.starlark.net/starlark"

	"pype/internal/version"
)

type versionInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

type versionOptions struct {
	format   string
	showHash bool
	showDate bool
}

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Tagline   string `json:"tagline"`
	Dialect   string `json:"dialect"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

const versionTagline = "one-liners with braces"

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show pype build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			full, _ := cmd.Flags().GetBool("full")
			hash, _ := cmd.Flags().GetBool("hash")
			date, _ := cmd.Flags().GetBool("date")
			opts := versionOptions{
				format:   strings.ToLower(format),
				showHash: hash || full,
				showDate: date || full,
			}

			switch opts.format {
			case "pretty", "json":
				// supported
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}

			info := collectVersionInfo()
			if opts.format == "json" {
				return renderVersionJSON(cmd.OutOrStdout(), info, opts)
			}
			colorMode, _ := cmd.Flags().GetString("color")
			renderVersionPretty(cmd.OutOrStdout(), info, opts, colorEnabled(colorMode, cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().Bool("hash", false, "include git commit hash")
	cmd.Flags().Bool("date", false, "include build timestamp")
	cmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:   v,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
	}
}

func dialect() string {
	return fmt.Sprintf("starlark (%d predeclared builtins)", len(starlark.Universe))
}

func renderVersionPretty(out io.Writer, info versionInfo, opts versionOptions, useColor bool) {
	fmt.Fprintf(out, "pype %s: %s\n", version.Styled(info.Version, useColor), versionTagline)
	fmt.Fprintf(out, "dialect: %s\n", dialect())
	if opts.showHash {
		fmt.Fprintf(out, "commit:  %s\n", valueOrUnknown(info.GitCommit))
	}
	if opts.showDate {
		fmt.Fprintf(out, "built:   %s\n", valueOrUnknown(info.BuildDate))
	}
}

func renderVersionJSON(out io.Writer, info versionInfo, opts versionOptions) error {
	payload := versionPayload{
		Tool:    "pype",
		Version: info.Version,
		Tagline: versionTagline,
		Dialect: dialect(),
	}
	if opts.showHash {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if opts.showDate {
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
