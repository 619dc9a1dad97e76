package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pype/internal/prof"
)

// setupProfiling starts the profilers named by the persistent profiling
// flags. The returned cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	var opts prof.Options
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"cpu-profile", &opts.CPU},
		{"mem-profile", &opts.Mem},
		{"runtime-trace", &opts.Trace},
	} {
		v, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", f.name, err)
		}
		*f.dst = v
	}
	if !opts.Enabled() {
		return func() {}, nil
	}

	session, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}, nil
}
