package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pype/internal/config"
	"pype/internal/trace"
)

// setupTracing builds the tracer described by cfg and attaches it to the
// command context. It returns the tracer and a cleanup function.
func setupTracing(cmd *cobra.Command, cfg config.TraceConfig) (trace.Tracer, func(), error) {
	level, err := trace.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}

	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return trace.Nop, func() {}, nil
	}

	mode, err := trace.ParseMode(cfg.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	format, err := trace.ParseFormat(cfg.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace format: %w", err)
	}
	ringSize, err := cmd.Flags().GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	tcfg := trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: cfg.Output,
		RingSize:   ringSize,
	}
	if cfg.Output == "" || cfg.Output == "-" {
		// hide Close so the tracer never closes stderr
		tcfg.Output = struct{ io.Writer }{cmd.ErrOrStderr()}
	}

	tracer, err := trace.New(tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}
