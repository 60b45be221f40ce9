package main

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/tissuerank/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the classify result cache",
		Long: `Manage the classify result cache.

The cache stores classify reports so that repeated runs with the same corpus,
split, ensemble and genes skip training. Entries are keyed by the corpus
digest, the split options, the classifier configuration and the gene list.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the classify result cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cacheDir
			if dir == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				dir = cfg.Cache.Dir
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving cache directory: %w", err)
			}

			if err := cache.New(absDir).Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (default: from config)")

	return cmd
}
