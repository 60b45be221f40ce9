package main

import (
	"log/slog"

	"github.com/spboyer/tissuerank/internal/projectconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tissuerank",
		Short: "Rank a tumor's likely tissue of origin from its mutated genes",
		Long: `tissuerank predicts the tissue of origin of a tumor specimen from the
genes found mutated in it.

It trains an ensemble of classifiers on a labeled specimen corpus, asks each
one for a probability over tissue types, and ranks the tissues by their
average probability across the ensemble.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "Path to a config file (default: nearest "+projectconfig.FileName+")")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newClassifyCommand())
	cmd.AddCommand(newEvaluateCommand())
	cmd.AddCommand(newGenesCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

// loadConfig reads --config when given, otherwise the nearest config file
// above the working directory, otherwise the defaults.
func loadConfig(cmd *cobra.Command) (*projectconfig.ProjectConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return projectconfig.LoadFile(path)
	}
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		slog.Debug("loaded config", "path", cfg.Path)
	}
	return cfg, nil
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
