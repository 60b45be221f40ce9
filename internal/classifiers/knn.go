package classifiers

import (
	"context"
)

const defaultNeighbors = 5

// KNNArgs holds the arguments for creating a k-nearest-neighbors classifier.
type KNNArgs struct {
	Name string
	// Neighbors is the number of nearest training samples that vote. Defaults to 5.
	Neighbors int `mapstructure:"neighbors"`
}

// KNN classifies by uniform vote of the nearest training samples under
// Euclidean distance. Equidistant samples are taken in training order.
type KNN struct {
	fitState
	name      string
	neighbors int

	x [][]float64
	y []int
}

// NewKNN creates a [KNN] classifier.
func NewKNN(args KNNArgs) *KNN {
	k := args.Neighbors
	if k <= 0 {
		k = defaultNeighbors
	}
	return &KNN{name: args.Name, neighbors: k}
}

func (c *KNN) Name() string { return c.name }
func (c *KNN) Kind() Kind   { return KindKNN }

func (c *KNN) Fit(ctx context.Context, features [][]float64, labels []string) error {
	width, err := validateTraining(features, labels)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.labels = newLabelSet(labels)
	c.nFeatures = width
	c.x = features
	c.y = c.labels.encode(labels)
	c.fitted = true
	return nil
}

func (c *KNN) PredictTop(features []float64) (string, error) {
	d, err := c.PredictDistribution(features)
	if err != nil {
		return "", err
	}
	return d.Top(), nil
}

func (c *KNN) PredictDistribution(features []float64) (Distribution, error) {
	if err := c.checkSample(features); err != nil {
		return nil, err
	}

	k := c.neighbors
	if k > len(c.x) {
		k = len(c.x)
	}

	// nearest holds the current k best as (distance, training index), ascending.
	type neighbor struct {
		dist float64
		idx  int
	}
	nearest := make([]neighbor, 0, k)

	for i, row := range c.x {
		d := squaredDistance(row, features)
		if len(nearest) == k && d >= nearest[k-1].dist {
			continue
		}
		pos := len(nearest)
		if pos < k {
			nearest = append(nearest, neighbor{})
		} else {
			pos = k - 1
		}
		for pos > 0 && nearest[pos-1].dist > d {
			nearest[pos] = nearest[pos-1]
			pos--
		}
		nearest[pos] = neighbor{dist: d, idx: i}
	}

	votes := make([]float64, len(c.labels.classes))
	for _, n := range nearest {
		votes[c.y[n.idx]]++
	}
	for i := range votes {
		votes[i] /= float64(len(nearest))
	}
	return c.labels.distribution(votes), nil
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
