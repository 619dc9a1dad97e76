package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pype/internal/ui"
)

func newPlaygroundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playground [code ...]",
		Short: "Try the brace notation interactively",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, ok := cmd.InOrStdin().(*os.File)
			if !ok || !isTerminal(in) {
				return errors.New("playground needs an interactive terminal")
			}
			return ui.RunPlayground(cmd.Context(), strings.Join(args, " "), in, cmd.OutOrStdout())
		},
	}
}
