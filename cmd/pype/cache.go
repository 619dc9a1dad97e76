package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pype/internal/cache"
	"pype/internal/config"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the compiled program cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := cfg.CacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := cfg.CacheDir()
			if err != nil {
				return err
			}
			c, err := cache.Open(dir)
			if err != nil {
				return err
			}
			n, err := c.Len()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached program(s) from %s\n", n, dir)
			}
			return nil
		},
	})
	return cmd
}

// loadConfig loads the config named by --config, or the default one.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	return config.Load(path)
}
