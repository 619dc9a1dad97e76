package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.starlark.net/starlark"
	"golang.org/x/term"

	"pype/internal/engine"
	"pype/internal/version"
)

const rootLong = `pype runs code on each line of stdin, available as the variable _.

Use curly braces instead of indentation and ; instead of newlines:

  cat file | pype 'if "x" in _ { out(_) } else { err(_) }'

out(obj) prints to stdout, err(obj) to stderr, exit(code) stops with an
exit code. Names defined in the init file are visible to every program.`

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pype [flags] [code ...]",
		Short:         "Brace-notation one-liners over stdin",
		Long:          rootLong,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runPipeline,
	}
	// Устанавливаем версию для автоматического флага --version
	root.Version = version.Version

	addProgramFlags(root)
	root.Flags().String("init", "", "init file to load instead of the configured one")
	root.Flags().Bool("no-init", false, "do not load the init file")
	root.Flags().Bool("no-cache", false, "do not use the compiled program cache")

	// Глобальные флаги
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/pype/config.toml)")
	root.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	root.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	root.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	root.PersistentFlags().String("trace-format", "text", "trace format (text|ndjson)")
	root.PersistentFlags().Int("trace-ring-size", 1024, "events kept by the ring tracer")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to file")
	root.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(newTranspileCmd())
	root.AddCommand(newSourceCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newPlaygroundCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// addProgramFlags registers the flags that shape the generated program.
func addProgramFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("before", "b", "", "code to execute before processing stdin")
	cmd.Flags().StringP("after", "a", "", "code to execute after processing stdin")
	cmd.Flags().BoolP("debug", "d", false, "show the source and every input/output line processed")
	cmd.Flags().Bool("no-trim", false, "keep the newline at the end of each input line")
}

// main executes the root command. exit(n) in user code becomes the process
// exit status; any other error is reported and exits with 1.
func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var exit *engine.ExitError
	if errors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	reportError(os.Stderr, err)
	os.Exit(1)
}

// reportError prints err, with a Starlark backtrace when there is one.
func reportError(w io.Writer, err error) {
	var eerr *starlark.EvalError
	if errors.As(err, &eerr) {
		fmt.Fprintln(w, eerr.Backtrace())
		return
	}
	fmt.Fprintf(w, "pype: %v\n", err)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves an auto|on|off setting for w.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
