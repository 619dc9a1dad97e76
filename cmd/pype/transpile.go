package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pype/internal/observ"
	"pype/internal/program"
)

type fragmentPayload struct {
	Name     string `json:"name"`
	Input    string `json:"input"`
	Output   string `json:"output"`
	Balanced bool   `json:"balanced"`
	State    string `json:"state"`
}

func newTranspileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transpile [flags] [code ...]",
		Short: "Print the indented form of the fragments without running them",
		Args:  cobra.ArbitraryArgs,
		RunE:  runTranspile,
	}
	cmd.Flags().StringP("before", "b", "", "code to execute before processing stdin")
	cmd.Flags().StringP("after", "a", "", "code to execute after processing stdin")
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}

func runTranspile(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}

	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}

	_, cleanup, err := setupTracing(cmd, s.cfg.Trace)
	if err != nil {
		return err
	}
	defer cleanup()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	var timer *observ.Timer
	if s.timings {
		timer = observ.NewTimer()
		defer func() { _ = timer.WriteSummary(cmd.ErrOrStderr()) }()
	}

	var prog *program.Program
	err = timer.Track("assemble", func() error {
		var aerr error
		prog, aerr = program.Assemble(cmd.Context(), s.opts)
		return aerr
	})
	if err != nil {
		return err
	}
	warnUnbalanced(cmd.ErrOrStderr(), prog, s)

	if format == "json" {
		return renderFragmentsJSON(cmd.OutOrStdout(), prog.Fragments)
	}
	return renderFragmentsText(cmd.OutOrStdout(), prog.Fragments)
}

// renderFragmentsText prints the pipeline as is, or every fragment under a
// "# name" header when there is more than one.
func renderFragmentsText(w io.Writer, frags []program.Fragment) error {
	if len(frags) == 1 {
		_, err := fmt.Fprintln(w, strings.TrimRight(frags[0].Output, "\n"))
		return err
	}
	for i, f := range frags {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if _, err := fmt.Fprintf(w, "# %s\n%s\n", f.Name, strings.TrimRight(f.Output, "\n")); err != nil {
			return err
		}
	}
	return nil
}

func renderFragmentsJSON(w io.Writer, frags []program.Fragment) error {
	payload := make([]fragmentPayload, 0, len(frags))
	for _, f := range frags {
		payload = append(payload, fragmentPayload{
			Name:     f.Name,
			Input:    f.Input,
			Output:   f.Output,
			Balanced: f.State.Balanced(),
			State:    f.State.String(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
