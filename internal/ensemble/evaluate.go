package ensemble

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spboyer/tissuerank/internal/classifiers"
	"github.com/spboyer/tissuerank/internal/dataset"
	"github.com/spboyer/tissuerank/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// EvaluationPolicy selects which classifiers are scored on the evaluation set.
type EvaluationPolicy string

const (
	// EvaluateFirst scores only the first classifier.
	EvaluateFirst EvaluationPolicy = "first"
	EvaluateAll   EvaluationPolicy = "all"
	EvaluateNone  EvaluationPolicy = "none"
)

// DefaultWorkers bounds parallel evaluation predictions.
const DefaultWorkers = 4

// ErrEmptyEvaluationSet is returned by Evaluate when there is nothing to score.
var ErrEmptyEvaluationSet = errors.New("evaluation set is empty")

// ParseEvaluationPolicy validates a policy name. An empty name means first.
func ParseEvaluationPolicy(s string) (EvaluationPolicy, error) {
	switch p := EvaluationPolicy(s); p {
	case "":
		return EvaluateFirst, nil
	case EvaluateFirst, EvaluateAll, EvaluateNone:
		return p, nil
	default:
		return "", fmt.Errorf("unknown evaluation policy %q (expected first, all or none)", s)
	}
}

func (p EvaluationPolicy) selects(index int) bool {
	switch p {
	case EvaluateAll:
		return true
	case EvaluateFirst:
		return index == 0
	default:
		return false
	}
}

// ClassMetrics is one row of a classification report.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation scores a fitted classifier against held-out specimens.
type Evaluation struct {
	Samples  int                 `json:"samples"`
	Correct  int                 `json:"correct"`
	Accuracy float64             `json:"accuracy"`
	Interval statistics.Interval `json:"interval"`
	Classes  []ClassMetrics      `json:"classes"`
	Macro    ClassMetrics        `json:"macro_avg"`
	Weighted ClassMetrics        `json:"weighted_avg"`
}

// Evaluate predicts every specimen in set with a fitted clf, at most workers
// at a time, and compares against the true labels.
func Evaluate(ctx context.Context, clf classifiers.Classifier, set *dataset.Set, workers int, seed int64) (*Evaluation, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrEmptyEvaluationSet
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	predicted := make([]string, set.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, r := range set.Records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			top, err := clf.PredictTop(r.Features)
			if err != nil {
				return fmt.Errorf("specimen %s: %w", r.ID, err)
			}
			predicted[i] = top
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	truth := set.Labels()
	correct := make([]bool, len(truth))
	ev := &Evaluation{Samples: len(truth)}
	for i := range truth {
		correct[i] = truth[i] == predicted[i]
		if correct[i] {
			ev.Correct++
		}
	}
	ev.Accuracy = float64(ev.Correct) / float64(ev.Samples)
	ev.Interval = statistics.AccuracyInterval(correct, statistics.DefaultConfidenceLevel, seed)
	ev.Classes, ev.Macro, ev.Weighted = classificationReport(truth, predicted)
	return ev, nil
}

// classificationReport computes per-label precision, recall and F1 over the
// sorted union of true and predicted labels, plus macro and support-weighted
// averages.
func classificationReport(truth, predicted []string) ([]ClassMetrics, ClassMetrics, ClassMetrics) {
	type tally struct{ tp, fp, support int }
	tallies := make(map[string]*tally)
	get := func(label string) *tally {
		t, ok := tallies[label]
		if !ok {
			t = &tally{}
			tallies[label] = t
		}
		return t
	}

	for i, want := range truth {
		got := predicted[i]
		get(want).support++
		if want == got {
			get(got).tp++
		} else {
			get(got).fp++
		}
	}

	labels := make([]string, 0, len(tallies))
	for l := range tallies {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	macro := ClassMetrics{Label: "macro avg"}
	weighted := ClassMetrics{Label: "weighted avg"}
	rows := make([]ClassMetrics, 0, len(labels))
	for _, l := range labels {
		t := tallies[l]
		m := ClassMetrics{
			Label:     l,
			Precision: ratio(t.tp, t.tp+t.fp),
			Recall:    ratio(t.tp, t.support),
			Support:   t.support,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		rows = append(rows, m)

		macro.Precision += m.Precision
		macro.Recall += m.Recall
		macro.F1 += m.F1
		w := float64(m.Support)
		weighted.Precision += w * m.Precision
		weighted.Recall += w * m.Recall
		weighted.F1 += w * m.F1
	}

	n := float64(len(truth))
	k := float64(len(rows))
	macro.Precision, macro.Recall, macro.F1 = macro.Precision/k, macro.Recall/k, macro.F1/k
	weighted.Precision, weighted.Recall, weighted.F1 = weighted.Precision/n, weighted.Recall/n, weighted.F1/n
	macro.Support = len(truth)
	weighted.Support = len(truth)
	return rows, macro, weighted
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
