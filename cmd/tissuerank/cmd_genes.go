package main

import (
	"context"
	"fmt"

	"github.com/spboyer/tissuerank/internal/dataset"
	"github.com/spf13/cobra"
)

func newGenesCommand() *cobra.Command {
	var corpusPath string

	cmd := &cobra.Command{
		Use:   "genes",
		Short: "List the genes the corpus knows about",
		Long: `List the corpus gene set in canonical order, one symbol per line. Only these
genes are accepted by classify.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			location := cfg.Corpus.Path
			if corpusPath != "" {
				location = corpusPath
			}

			corpus, err := dataset.Load(context.Background(), location)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range corpus.Genes.Symbols() {
				fmt.Fprintln(out, g) //nolint:errcheck
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Corpus path or Azure Blob URL (default: from config)")
	return cmd
}
