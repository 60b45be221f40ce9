package main

import (
	"time"

	"github.com/spboyer/tissuerank/internal/pipeline"
	"github.com/spf13/cobra"
)

// runFlags are the corpus and training flags shared by classify and
// evaluate. They override the config only when set explicitly.
type runFlags struct {
	corpus   string
	holdout  float64
	seed     int64
	stratify bool
	timeout  time.Duration
	workers  int
	verbose  bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.corpus, "corpus", "", "Corpus path or Azure Blob URL (default: from config)")
	cmd.Flags().Float64Var(&f.holdout, "holdout", 0, "Fraction of specimens held out for evaluation (default: 0.2)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed for the train/eval split (default: 27)")
	cmd.Flags().BoolVar(&f.stratify, "stratify", false, "Hold out the same fraction of every tissue type")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Per-classifier training deadline, e.g. 30s (default: none)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent evaluation predictions (default: 4)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print each training step")
}

func (f *runFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	changed := cmd.Flags().Changed
	if changed("corpus") {
		opts.Corpus = f.corpus
	}
	if changed("holdout") {
		opts.Split.Holdout = f.holdout
	}
	if changed("seed") {
		opts.Split.Seed = f.seed
	}
	if changed("stratify") {
		opts.Split.Stratify = f.stratify
	}
	if changed("timeout") {
		opts.Timeout = f.timeout
	}
	if changed("workers") {
		opts.Workers = f.workers
	}
}

// attachProgress wires verbose output or a spinner to p. The returned func
// stops the spinner, if any.
func (f *runFlags) attachProgress(cmd *cobra.Command, p *pipeline.Pipeline) (stop func()) {
	errOut := cmd.ErrOrStderr()
	if f.verbose {
		p.OnProgress(verboseProgressListener(errOut))
		return func() {}
	}
	if !isTerminal(errOut) {
		return func() {}
	}
	s := startSpinner(errOut, "Training ensemble")
	p.OnProgress(spinnerProgressListener(s))
	return s.Stop
}
