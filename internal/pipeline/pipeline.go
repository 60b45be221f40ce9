// Package pipeline wires the classify and evaluate runs together: load the
// corpus, encode the profile, split, train the ensemble, aggregate and
// assemble the report. Each stage takes its inputs and returns its outputs
// explicitly.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spboyer/tissuerank/internal/cache"
	"github.com/spboyer/tissuerank/internal/consensus"
	"github.com/spboyer/tissuerank/internal/dataset"
	"github.com/spboyer/tissuerank/internal/ensemble"
	"github.com/spboyer/tissuerank/internal/genes"
	"github.com/spboyer/tissuerank/internal/models"
	"github.com/spboyer/tissuerank/internal/projectconfig"
)

// Options are the resolved settings for one run, after config and flags.
type Options struct {
	Corpus      string
	Split       dataset.SplitOptions
	Classifiers []projectconfig.ClassifierConfig
	Evaluate    ensemble.EvaluationPolicy
	Workers     int
	// Timeout bounds each classifier's fit; zero means none.
	Timeout   time.Duration
	Threshold float64
}

// OptionsFromConfig resolves run options from a loaded project config.
func OptionsFromConfig(cfg *projectconfig.ProjectConfig) (Options, error) {
	policy, err := ensemble.ParseEvaluationPolicy(cfg.Ensemble.Evaluate)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		Corpus: cfg.Corpus.Path,
		Split: dataset.SplitOptions{
			Holdout: cfg.Split.Holdout,
			Seed:    projectconfig.DefaultSeed,
		},
		Classifiers: cfg.Ensemble.Classifiers,
		Evaluate:    policy,
		Workers:     cfg.Ensemble.Workers,
		Timeout:     time.Duration(cfg.Ensemble.Timeout) * time.Second,
		Threshold:   cfg.Report.Threshold,
	}
	if cfg.Split.Seed != nil {
		opts.Split.Seed = *cfg.Split.Seed
	}
	if cfg.Split.Stratify != nil {
		opts.Split.Stratify = *cfg.Split.Stratify
	}
	return opts, nil
}

// Pipeline runs classify and evaluate with fixed options.
type Pipeline struct {
	opts      Options
	cache     *cache.Cache
	listeners []ensemble.ProgressListener
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache serves repeated classify runs from c.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// New creates a Pipeline.
func New(opts Options, options ...Option) *Pipeline {
	p := &Pipeline{opts: opts}
	for _, o := range options {
		o(p)
	}
	return p
}

// OnProgress forwards ensemble progress events to listener.
func (p *Pipeline) OnProgress(listener ensemble.ProgressListener) {
	p.listeners = append(p.listeners, listener)
}

// LoadCorpus reads the configured corpus.
func (p *Pipeline) LoadCorpus(ctx context.Context) (*dataset.Corpus, error) {
	return dataset.Load(ctx, p.opts.Corpus)
}

// Classify ranks candidate tissues for the mutant gene list. The genes are
// validated against the corpus before anything is trained.
func (p *Pipeline) Classify(ctx context.Context, corpus *dataset.Corpus, mutant []string) (*models.Report, error) {
	start := time.Now()

	profile, err := encode(corpus, mutant)
	if err != nil {
		return nil, err
	}

	key, cached := p.lookup(corpus, mutant)
	if cached != nil {
		cached.Cached = true
		cached.ApplyThreshold(p.opts.Threshold)
		return cached, nil
	}

	train, eval, err := dataset.Split(corpus, p.opts.Split)
	if err != nil {
		return nil, err
	}

	orch, err := p.orchestrator(eval)
	if err != nil {
		return nil, err
	}
	results, err := orch.Run(ctx, train, profile)
	if err != nil {
		return nil, err
	}

	ranking := consensus.Aggregate(results)

	report := models.NewReport(p.summary(corpus, train, eval), mutant, results, ranking)
	report.DurationMs = time.Since(start).Milliseconds()

	if key != "" {
		if err := p.cache.Put(key, report); err != nil {
			slog.Warn("failed to cache report", "error", err)
		}
	}

	report.ApplyThreshold(p.opts.Threshold)
	return report, nil
}

// Evaluate fits every configured classifier on the training split and
// scores each against the held-out split.
func (p *Pipeline) Evaluate(ctx context.Context, corpus *dataset.Corpus) (*models.EvaluationReport, error) {
	start := time.Now()

	train, eval, err := dataset.Split(corpus, p.opts.Split)
	if err != nil {
		return nil, err
	}

	orch, err := p.orchestrator(eval)
	if err != nil {
		return nil, err
	}
	results, err := orch.Score(ctx, train)
	if err != nil {
		return nil, err
	}

	report := models.NewEvaluationReport(p.summary(corpus, train, eval), results)
	report.DurationMs = time.Since(start).Milliseconds()
	return report, nil
}

// encode is the feature-encoding stage. An unknown gene aborts the run.
func encode(corpus *dataset.Corpus, mutant []string) (genes.Vector, error) {
	if len(mutant) == 0 {
		return nil, genes.ErrNoGenes
	}
	profile, err := genes.Encode(mutant, corpus.Genes)
	if err != nil {
		return nil, err
	}
	slog.Debug("profile encoded", "genes", len(mutant), "weight", profile.Weight())
	return profile, nil
}

// lookup returns the cache key for this run and any report stored under it.
// The key is empty when caching is off.
func (p *Pipeline) lookup(corpus *dataset.Corpus, mutant []string) (string, *models.Report) {
	if p.cache == nil {
		return "", nil
	}
	key, err := cache.Key{
		CorpusDigest: corpus.Digest,
		Split:        p.opts.Split,
		Evaluate:     string(p.opts.Evaluate),
		Classifiers:  p.opts.Classifiers,
		Genes:        mutant,
	}.Hash()
	if err != nil {
		slog.Warn("failed to compute cache key", "error", err)
		return "", nil
	}
	if report, ok := p.cache.Get(key); ok {
		slog.Debug("cache hit", "key", key, "run_id", report.RunID)
		return key, report
	}
	return key, nil
}

func (p *Pipeline) orchestrator(eval *dataset.Set) (*ensemble.Orchestrator, error) {
	cfg := projectconfig.ProjectConfig{Ensemble: projectconfig.EnsembleConfig{Classifiers: p.opts.Classifiers}}
	cls, err := cfg.BuildClassifiers()
	if err != nil {
		return nil, err
	}
	if len(cls) == 0 {
		return nil, fmt.Errorf("no classifiers configured")
	}

	orch := ensemble.New(cls,
		ensemble.WithTimeout(p.opts.Timeout),
		ensemble.WithEvaluation(eval, p.opts.Evaluate, p.opts.Workers, p.opts.Split.Seed),
	)
	for _, l := range p.listeners {
		orch.OnProgress(l)
	}
	return orch, nil
}

func (p *Pipeline) summary(corpus *dataset.Corpus, train, eval *dataset.Set) models.CorpusSummary {
	return models.CorpusSummary{
		Source:      corpus.Source,
		Digest:      corpus.Digest,
		Specimens:   len(corpus.Records),
		Genes:       corpus.Genes.Len(),
		TissueTypes: len(corpus.Labels()),
		TrainSize:   train.Len(),
		EvalSize:    eval.Len(),
		Stratified:  p.opts.Split.Stratify,
		Seed:        p.opts.Split.Seed,
	}
}
