package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pype/internal/cache"
	"pype/internal/config"
	"pype/internal/engine"
	"pype/internal/observ"
	"pype/internal/program"
	"pype/internal/trace"
)

// runPipeline is the root command: assemble the program from the fragments
// and run it over stdin.
func runPipeline(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	tracer, cleanup, err := setupTracing(cmd, s.cfg.Trace)
	if err != nil {
		return err
	}
	defer cleanup()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "run")
	defer span.End("")

	var timer *observ.Timer
	if s.timings {
		timer = observ.NewTimer()
	}

	stdout := bufio.NewWriter(cmd.OutOrStdout())
	stderr := cmd.ErrOrStderr()

	runErr := execute(ctx, cmd, s, timer, stdout, stderr)
	if err := stdout.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("writing output: %w", err)
	}
	if timer != nil {
		_ = timer.WriteSummary(stderr)
	}
	if runErr != nil {
		var exit *engine.ExitError
		if !errors.As(runErr, &exit) {
			if format, ferr := trace.ParseFormat(s.cfg.Trace.Format); ferr == nil {
				_, _ = trace.DumpRing(tracer, stderr, format)
			}
		}
	}
	return runErr
}

func execute(ctx context.Context, cmd *cobra.Command, s *settings, timer *observ.Timer, stdout *bufio.Writer, stderr io.Writer) error {
	env := engine.NewEnvironment(stdout, stderr)

	initPath, err := resolveInit(cmd, s.cfg)
	if err != nil {
		return err
	}
	if err := timer.Track("init", func() error { return env.LoadInit(ctx, initPath) }); err != nil {
		return err
	}

	var prog *program.Program
	err = timer.Track("assemble", func() error {
		var aerr error
		prog, aerr = program.Assemble(ctx, s.opts)
		return aerr
	})
	if err != nil {
		return err
	}
	warnUnbalanced(stderr, prog, s)

	noCache, _ := cmd.Flags().GetBool("no-cache")
	c, err := openCache(s.cfg, noCache)
	if err != nil {
		if !s.quiet {
			fmt.Fprintf(stderr, "warning: compiled program cache disabled: %v\n", err)
		}
		c = nil
	}
	eng := engine.New(env, c)

	if s.opts.Debug {
		fmt.Fprintln(stdout, "Source:")
		if err := program.Listing(stdout, prog.Source, program.ListingOptions{Color: colorEnabled(s.cfg.Color, cmd.OutOrStdout())}); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Execution:")
	}

	runErr := timer.Track("execute", func() error {
		return eng.Run(ctx, prog.Source, cmd.InOrStdin())
	})
	if runErr == nil {
		return nil
	}

	var exit *engine.ExitError
	if errors.As(runErr, &exit) || s.opts.Debug {
		return runErr
	}
	// whatever user code printed comes before the listing
	_ = stdout.Flush()
	fmt.Fprintln(stderr, "Source:")
	_ = program.Listing(stderr, prog.Source, program.ListingOptions{
		Color:     colorEnabled(s.cfg.Color, stderr),
		Highlight: engine.ErrorLine(runErr),
	})
	fmt.Fprintln(stderr)
	return runErr
}

// resolveInit picks the init file: --no-init, then --init, then the config.
func resolveInit(cmd *cobra.Command, cfg config.Config) (string, error) {
	if noInit, _ := cmd.Flags().GetBool("no-init"); noInit {
		return "", nil
	}
	if cmd.Flags().Changed("init") {
		return cmd.Flags().GetString("init")
	}
	return cfg.InitPath()
}

// openCache opens the compiled program cache, or returns nil when it is
// turned off.
func openCache(cfg config.Config, disabled bool) (*cache.Cache, error) {
	if disabled || !cfg.Cache.Enabled {
		return nil, nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(dir)
}

// warnUnbalanced reports fragments that ended with open strings, brackets
// or blocks. The program still runs.
func warnUnbalanced(w io.Writer, prog *program.Program, s *settings) {
	if s.quiet {
		return
	}
	label := color.New(color.FgYellow, color.Bold)
	if colorEnabled(s.cfg.Color, w) {
		label.EnableColor()
	} else {
		label.DisableColor()
	}
	for _, f := range prog.Unbalanced() {
		fmt.Fprintf(w, "%s %s fragment looks unbalanced (%s)\n", label.Sprint("warning:"), f.Name, f.State)
	}
}
