package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pype/internal/config"
	"pype/internal/program"
)

// settings is the config file with command-line overrides applied.
type settings struct {
	cfg     config.Config
	opts    program.Options
	quiet   bool
	timings bool
}

// loadSettings reads the config file and lays explicitly set flags over it.
// args are the pipeline code, joined with a space.
func loadSettings(cmd *cobra.Command, args []string) (*settings, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"color", &cfg.Color},
		{"trace", &cfg.Trace.Output},
		{"trace-level", &cfg.Trace.Level},
		{"trace-mode", &cfg.Trace.Mode},
		{"trace-format", &cfg.Trace.Format},
	}
	for _, o := range overrides {
		if !flags.Changed(o.flag) {
			continue
		}
		v, err := flags.GetString(o.flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
		*o.dst = v
	}
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		// --trace alone means "show the phases"
		cfg.Trace.Level = "phase"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &settings{cfg: cfg}
	s.quiet, _ = flags.GetBool("quiet")
	s.timings, _ = flags.GetBool("timings")

	s.opts = program.Options{
		Pipeline:  strings.Join(args, " "),
		Trim:      cfg.Trim,
		Normalize: cfg.Normalize,
	}
	if flags.Lookup("before") != nil {
		s.opts.Before, _ = flags.GetString("before")
		s.opts.After, _ = flags.GetString("after")
		s.opts.Debug, _ = flags.GetBool("debug")
		if noTrim, _ := flags.GetBool("no-trim"); noTrim {
			s.opts.Trim = false
		}
	}
	return s, nil
}
