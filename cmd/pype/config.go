package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pype/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print where the config file is looked up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := cmd.Flags().GetString("config")
			path, err := config.Find(explicit)
			if err != nil && !errors.Is(err, config.ErrNotFound) {
				return err
			}
			if errors.Is(err, config.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (missing, using defaults)\n", path)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := cmd.Flags().GetString("config")
			path, err := config.Find(explicit)
			if err != nil && !errors.Is(err, config.ErrNotFound) {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := config.Default().WriteFile(path, force); err != nil {
				return err
			}
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
