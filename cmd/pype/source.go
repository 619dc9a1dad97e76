package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pype/internal/program"
)

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source [flags] [code ...]",
		Short: "Print the program pype would run",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			prog, err := program.Assemble(cmd.Context(), s.opts)
			if err != nil {
				return err
			}
			warnUnbalanced(cmd.ErrOrStderr(), prog, s)

			if numbered, _ := cmd.Flags().GetBool("numbered"); numbered {
				return program.Listing(cmd.OutOrStdout(), prog.Source, program.ListingOptions{
					Color: colorEnabled(s.cfg.Color, cmd.OutOrStdout()),
				})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), prog.Source)
			return err
		},
	}
	addProgramFlags(cmd)
	cmd.Flags().BoolP("numbered", "n", false, "prefix every line with its number")
	return cmd
}
