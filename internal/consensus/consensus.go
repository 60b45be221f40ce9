// Package consensus merges the per-classifier probability distributions into
// a single ranking of tissue types.
package consensus

import (
	"math"
	"sort"

	"github.com/spboyer/tissuerank/internal/ensemble"
)

// DisplayPlaces is the rounding applied to probabilities shown to users.
const DisplayPlaces = 3

// Entry is one tissue type's consensus score. Probabilities[i] was reported
// by Classifiers[i]; classifiers that did not report the tissue are absent
// rather than counted as zero.
type Entry struct {
	Tissue        string    `json:"tissue"`
	Probabilities []float64 `json:"probabilities"`
	Classifiers   []string  `json:"classifiers"`
	Average       float64   `json:"average"`
}

// Probability returns the probability the named classifier gave this tissue.
func (e Entry) Probability(classifier string) (float64, bool) {
	for i, c := range e.Classifiers {
		if c == classifier {
			return e.Probabilities[i], true
		}
	}
	return 0, false
}

// Rounded returns a copy with every probability and the average rounded to
// places decimals.
func (e Entry) Rounded(places int) Entry {
	probs := make([]float64, len(e.Probabilities))
	for i, p := range e.Probabilities {
		probs[i] = Round(p, places)
	}
	return Entry{
		Tissue:        e.Tissue,
		Probabilities: probs,
		Classifiers:   append([]string(nil), e.Classifiers...),
		Average:       Round(e.Average, places),
	}
}

// Ranking is ordered by descending average.
type Ranking []Entry

// Tissues returns the tissue labels in rank order.
func (r Ranking) Tissues() []string {
	out := make([]string, len(r))
	for i, e := range r {
		out[i] = e.Tissue
	}
	return out
}

// Above returns the entries for which some classifier reported a probability
// greater than threshold, in rank order.
func (r Ranking) Above(threshold float64) Ranking {
	var out Ranking
	for _, e := range r {
		for _, p := range e.Probabilities {
			if p > threshold {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Rounded rounds every entry for display.
func (r Ranking) Rounded(places int) Ranking {
	out := make(Ranking, len(r))
	for i, e := range r {
		out[i] = e.Rounded(places)
	}
	return out
}

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

type sample struct {
	classifier  string
	probability float64
}

// accumulation is the output of the map phase: every label's samples in
// classifier order, and the labels in the order they were first reported.
type accumulation struct {
	order   []string
	samples map[string][]sample
}

func accumulate(results []ensemble.Result) accumulation {
	acc := accumulation{samples: make(map[string][]sample)}
	for _, r := range results {
		for _, p := range r.Distribution {
			if _, seen := acc.samples[p.Label]; !seen {
				acc.order = append(acc.order, p.Label)
			}
			acc.samples[p.Label] = append(acc.samples[p.Label], sample{classifier: r.Classifier, probability: p.Value})
		}
	}
	return acc
}

func (acc accumulation) reduce() Ranking {
	ranking := make(Ranking, 0, len(acc.order))
	for _, label := range acc.order {
		samples := acc.samples[label]
		e := Entry{
			Tissue:        label,
			Probabilities: make([]float64, len(samples)),
			Classifiers:   make([]string, len(samples)),
		}
		sum := 0.0
		for i, s := range samples {
			e.Probabilities[i] = s.probability
			e.Classifiers[i] = s.classifier
			sum += s.probability
		}
		e.Average = sum / float64(len(samples))
		ranking = append(ranking, e)
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Average > ranking[j].Average
	})
	return ranking
}

// Aggregate averages each tissue's probability over the classifiers that
// reported it and ranks tissues by that average. Equal averages keep the
// order in which the tissues were first reported. results is not modified.
func Aggregate(results []ensemble.Result) Ranking {
	return accumulate(results).reduce()
}
