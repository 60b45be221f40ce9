// Package statistics provides the interval estimates reported with
// classifier accuracy.
package statistics

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Interval is a bootstrap confidence interval around a sample mean.
type Interval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

// Contains reports whether v lies inside the interval, bounds included.
func (i Interval) Contains(v float64) bool {
	return v >= i.Lower && v <= i.Upper
}

// Width is Upper - Lower.
func (i Interval) Width() float64 {
	return i.Upper - i.Lower
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 10000

// DefaultConfidenceLevel is used when callers pass a level outside (0, 1).
const DefaultConfidenceLevel = 0.95

// Bootstrap computes a percentile bootstrap interval for the mean of values.
// A negative seed uses a non-deterministic source. Fewer than 2 values give a
// degenerate interval at the mean.
func Bootstrap(values []float64, confidenceLevel float64, seed int64) Interval {
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = DefaultConfidenceLevel
	}

	n := len(values)
	if n < 2 {
		m := 0.0
		if n == 1 {
			m = values[0]
		}
		return Interval{Lower: m, Upper: m, Mean: m, ConfidenceLevel: confidenceLevel}
	}

	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	iters := DefaultBootstrapIterations
	means := make([]float64, iters)
	sample := make([]float64, n)
	for i := range means {
		for j := range sample {
			sample[j] = values[rng.Intn(n)]
		}
		means[i] = stat.Mean(sample, nil)
	}
	sort.Float64s(means)

	alpha := 1 - confidenceLevel
	return Interval{
		Lower:           stat.Quantile(alpha/2, stat.Empirical, means, nil),
		Upper:           stat.Quantile(1-alpha/2, stat.Empirical, means, nil),
		Mean:            stat.Mean(values, nil),
		ConfidenceLevel: confidenceLevel,
		NumBootstraps:   iters,
	}
}

// AccuracyInterval bootstraps the fraction of true outcomes.
func AccuracyInterval(correct []bool, confidenceLevel float64, seed int64) Interval {
	values := make([]float64, len(correct))
	for i, ok := range correct {
		if ok {
			values[i] = 1
		}
	}
	return Bootstrap(values, confidenceLevel, seed)
}
