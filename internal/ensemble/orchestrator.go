// Package ensemble trains the configured classifiers one after another and
// collects each one's prediction for an unknown profile.
package ensemble

//go:generate go tool mockgen -destination=mock_classifier_test.go -package=ensemble github.com/spboyer/tissuerank/internal/classifiers Classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/spboyer/tissuerank/internal/classifiers"
	"github.com/spboyer/tissuerank/internal/dataset"
	"github.com/spboyer/tissuerank/internal/genes"
)

// IntegrityTolerance is how far a distribution's sum may drift from 1.
const IntegrityTolerance = 1e-6

// Result is one classifier's prediction for the unknown profile.
type Result struct {
	Classifier   string                   `json:"classifier"`
	Kind         classifiers.Kind         `json:"kind"`
	Top          string                   `json:"top"`
	Distribution classifiers.Distribution `json:"distribution"`
	Evaluation   *Evaluation              `json:"evaluation,omitempty"`
}

// Orchestrator drives a fixed, ordered list of classifiers.
type Orchestrator struct {
	classifiers []classifiers.Classifier
	timeout     time.Duration

	evalSet *dataset.Set
	policy  EvaluationPolicy
	workers int
	seed    int64

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

const (
	EventClassifierStart    EventType = "classifier_start"
	EventClassifierFitted   EventType = "classifier_fitted"
	EventClassifierComplete EventType = "classifier_complete"
	EventEnsembleComplete   EventType = "ensemble_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType  EventType
	Classifier string
	// Index is 1-based.
	Index      int
	Total      int
	DurationMs int64
	Details    map[string]any
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each classifier's Fit. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithEvaluation scores classifiers selected by policy against set after
// they are fitted. workers bounds the parallel predictions; seed drives the
// bootstrap interval.
func WithEvaluation(set *dataset.Set, policy EvaluationPolicy, workers int, seed int64) Option {
	return func(o *Orchestrator) {
		o.evalSet = set
		o.policy = policy
		o.workers = workers
		o.seed = seed
	}
}

// New creates an Orchestrator that runs cls in the given order.
func New(cls []classifiers.Classifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifiers: cls,
		policy:      EvaluateNone,
		listeners:   []ProgressListener{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnProgress registers a progress listener
func (o *Orchestrator) OnProgress(listener ProgressListener) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.listeners = append(o.listeners, listener)
}

// Names returns the classifier names in run order.
func (o *Orchestrator) Names() []string {
	names := make([]string, len(o.classifiers))
	for i, c := range o.classifiers {
		names[i] = c.Name()
	}
	return names
}

func (o *Orchestrator) notify(event ProgressEvent) {
	o.progressMu.Lock()
	listeners := append([]ProgressListener(nil), o.listeners...)
	o.progressMu.Unlock()
	for _, l := range listeners {
		l(event)
	}
}

// Run fits every classifier on train and predicts profile with each, in
// order. It stops at the first failure; no classifier is skipped.
func (o *Orchestrator) Run(ctx context.Context, train *dataset.Set, profile genes.Vector) ([]Result, error) {
	if train.Genes != nil && len(profile) != train.Genes.Len() {
		return nil, fmt.Errorf("profile has %d genes, training set has %d", len(profile), train.Genes.Len())
	}

	features := train.Features()
	labels := train.Labels()
	total := len(o.classifiers)
	runStart := time.Now()

	results := make([]Result, 0, total)
	for i, clf := range o.classifiers {
		name := clf.Name()
		o.notify(ProgressEvent{EventType: EventClassifierStart, Classifier: name, Index: i + 1, Total: total})

		start := time.Now()
		if err := o.fit(ctx, clf, features, labels); err != nil {
			return nil, &TrainingError{Classifier: name, Err: err}
		}
		fitDuration := time.Since(start)
		slog.Debug("classifier fitted", "classifier", name, "kind", clf.Kind(), "samples", len(features), "duration", fitDuration)
		o.notify(ProgressEvent{
			EventType:  EventClassifierFitted,
			Classifier: name,
			Index:      i + 1,
			Total:      total,
			DurationMs: fitDuration.Milliseconds(),
		})

		top, err := clf.PredictTop(profile)
		if err != nil {
			return nil, fmt.Errorf("%s: predict: %w", name, err)
		}
		dist, err := clf.PredictDistribution(profile)
		if err != nil {
			return nil, fmt.Errorf("%s: predict distribution: %w", name, err)
		}
		if err := checkDistribution(name, dist); err != nil {
			return nil, err
		}
		slog.Debug("classifier predicted", "classifier", name, "top", top)

		result := Result{
			Classifier:   name,
			Kind:         clf.Kind(),
			Top:          top,
			Distribution: dist,
		}

		if o.policy.selects(i) {
			if o.evalSet == nil || o.evalSet.Len() == 0 {
				slog.Debug("skipping evaluation, no evaluation specimens", "classifier", name)
			} else {
				ev, err := Evaluate(ctx, clf, o.evalSet, o.workers, o.seed)
				if err != nil {
					return nil, fmt.Errorf("%s: evaluate: %w", name, err)
				}
				result.Evaluation = ev
			}
		}

		results = append(results, result)
		o.notify(ProgressEvent{
			EventType:  EventClassifierComplete,
			Classifier: name,
			Index:      i + 1,
			Total:      total,
			DurationMs: time.Since(start).Milliseconds(),
			Details:    map[string]any{"top": top},
		})
	}

	o.notify(ProgressEvent{
		EventType:  EventEnsembleComplete,
		Total:      total,
		DurationMs: time.Since(runStart).Milliseconds(),
	})
	return results, nil
}

// Score fits every classifier on train and evaluates each one against the
// evaluation set, regardless of policy. No profile is predicted.
func (o *Orchestrator) Score(ctx context.Context, train *dataset.Set) ([]Result, error) {
	if o.evalSet == nil || o.evalSet.Len() == 0 {
		return nil, ErrEmptyEvaluationSet
	}

	features := train.Features()
	labels := train.Labels()
	total := len(o.classifiers)
	runStart := time.Now()

	results := make([]Result, 0, total)
	for i, clf := range o.classifiers {
		name := clf.Name()
		o.notify(ProgressEvent{EventType: EventClassifierStart, Classifier: name, Index: i + 1, Total: total})

		start := time.Now()
		if err := o.fit(ctx, clf, features, labels); err != nil {
			return nil, &TrainingError{Classifier: name, Err: err}
		}
		o.notify(ProgressEvent{
			EventType:  EventClassifierFitted,
			Classifier: name,
			Index:      i + 1,
			Total:      total,
			DurationMs: time.Since(start).Milliseconds(),
		})

		ev, err := Evaluate(ctx, clf, o.evalSet, o.workers, o.seed)
		if err != nil {
			return nil, fmt.Errorf("%s: evaluate: %w", name, err)
		}
		slog.Debug("classifier evaluated", "classifier", name, "accuracy", ev.Accuracy, "samples", ev.Samples)

		results = append(results, Result{Classifier: name, Kind: clf.Kind(), Evaluation: ev})
		o.notify(ProgressEvent{
			EventType:  EventClassifierComplete,
			Classifier: name,
			Index:      i + 1,
			Total:      total,
			DurationMs: time.Since(start).Milliseconds(),
			Details:    map[string]any{"accuracy": ev.Accuracy},
		})
	}

	o.notify(ProgressEvent{
		EventType:  EventEnsembleComplete,
		Total:      total,
		DurationMs: time.Since(runStart).Milliseconds(),
	})
	return results, nil
}

// fit runs Fit under the per-classifier deadline. A fit that outlives the
// deadline is abandoned with its context cancelled.
func (o *Orchestrator) fit(ctx context.Context, clf classifiers.Classifier, features [][]float64, labels []string) error {
	if o.timeout <= 0 {
		return clf.Fit(ctx, features, labels)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- clf.Fit(ctx, features, labels)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func checkDistribution(classifier string, dist classifiers.Distribution) error {
	for _, p := range dist {
		if math.IsNaN(p.Value) || p.Value < 0 || p.Value > 1+IntegrityTolerance {
			return &DistributionIntegrityError{Classifier: classifier, Sum: dist.Sum(), Label: p.Label, Value: p.Value}
		}
	}
	sum := dist.Sum()
	if math.IsNaN(sum) || math.Abs(sum-1) > IntegrityTolerance {
		return &DistributionIntegrityError{Classifier: classifier, Sum: sum}
	}
	return nil
}
