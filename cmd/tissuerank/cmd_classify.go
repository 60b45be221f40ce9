package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spboyer/tissuerank/internal/cache"
	"github.com/spboyer/tissuerank/internal/dataset"
	"github.com/spboyer/tissuerank/internal/genes"
	"github.com/spboyer/tissuerank/internal/pipeline"
	"github.com/spboyer/tissuerank/internal/projectconfig"
	"github.com/spboyer/tissuerank/internal/prompt"
	"github.com/spboyer/tissuerank/internal/reporting"
	"github.com/spboyer/tissuerank/internal/spinner"
	"github.com/spf13/cobra"
)

var startSpinner = spinner.Start

// askGenes is swapped out in tests.
var askGenes = prompt.AskGenes

type classifyFlags struct {
	runFlags

	genes     string
	format    string
	output    string
	threshold float64
	evaluate  string

	cache    bool
	noCache  bool
	cacheDir string
}

func newClassifyCommand() *cobra.Command {
	var f classifyFlags

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Rank tissues of origin for a list of mutant genes",
		Long: `Train the classifier ensemble on the corpus and rank candidate tissues of
origin for an unknown specimen.

The mutant genes are given with --genes as a comma-separated list. Without
--genes you are prompted for them. Every gene must be part of the corpus.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return classifyCommandE(cmd, &f)
		},
	}

	f.runFlags.register(cmd)
	cmd.Flags().StringVarP(&f.genes, "genes", "g", "", `Comma-separated mutant genes, e.g. "APC,KRAS"`)
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: text, markdown, html, json (default: text)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "Also list tissues any classifier scored above this probability")
	cmd.Flags().StringVar(&f.evaluate, "evaluate", "", "Score classifiers on held-out specimens: first, all, none (default: first)")
	cmd.Flags().BoolVar(&f.cache, "cache", false, "Enable result caching")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Disable result caching")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "Cache directory (default: "+projectconfig.DefaultCacheDir+")")
	cmd.MarkFlagsMutuallyExclusive("cache", "no-cache")

	return cmd
}

func classifyCommandE(cmd *cobra.Command, f *classifyFlags) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("evaluate") {
		cfg.Ensemble.Evaluate = f.evaluate
	}

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	f.runFlags.apply(cmd, &opts)
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = f.threshold
	}

	formatName := cfg.Report.Format
	if cmd.Flags().Changed("format") {
		formatName = f.format
	}
	format, err := reporting.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == reporting.FormatJUnit {
		return fmt.Errorf("format %q is only available for evaluate", format)
	}

	resultCache, err := f.resultCache(cfg)
	if err != nil {
		return err
	}
	var pipelineOpts []pipeline.Option
	if resultCache != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithCache(resultCache))
	}

	p := pipeline.New(opts, pipelineOpts...)
	ctx := context.Background()

	corpus, err := p.LoadCorpus(ctx)
	if err != nil {
		return err
	}

	mutant, err := f.mutantGenes(cmd, corpus)
	if err != nil {
		return err
	}

	stop := f.attachProgress(cmd, p)
	report, err := p.Classify(ctx, corpus, mutant)
	stop()
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), f.output, func(w io.Writer) error {
		return reporting.Render(w, format, report)
	})
}

// mutantGenes takes --genes when given and prompts otherwise.
func (f *classifyFlags) mutantGenes(cmd *cobra.Command, corpus *dataset.Corpus) ([]string, error) {
	if cmd.Flags().Changed("genes") {
		list := genes.ParseList(f.genes)
		if len(list) == 0 {
			return nil, genes.ErrNoGenes
		}
		return list, nil
	}
	return askGenes(cmd.InOrStdin(), cmd.ErrOrStderr(), corpus.Genes)
}

func (f *classifyFlags) resultCache(cfg *projectconfig.ProjectConfig) (*cache.Cache, error) {
	enabled := cfg.Cache.Enabled != nil && *cfg.Cache.Enabled
	if f.cache {
		enabled = true
	}
	if f.noCache {
		enabled = false
	}
	if !enabled {
		return nil, nil
	}

	dir := cfg.Cache.Dir
	if f.cacheDir != "" {
		dir = f.cacheDir
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}
	return cache.New(absDir), nil
}

// writeReport renders to path when set, otherwise to stdout.
func writeReport(stdout io.Writer, path string, render func(io.Writer) error) error {
	if path == "" {
		return render(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := render(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	fmt.Fprintf(stdout, "Report saved to: %s\n", path) //nolint:errcheck
	return nil
}
