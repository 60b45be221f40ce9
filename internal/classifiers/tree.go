package classifiers

import (
	"context"
	"sort"
)

// DecisionTreeArgs holds the arguments for creating a CART decision tree.
type DecisionTreeArgs struct {
	Name string
	// MaxDepth limits the tree depth; 0 means unlimited.
	MaxDepth int `mapstructure:"max_depth"`
	// MinSamplesSplit is the smallest node that may be split. Defaults to 2.
	MinSamplesSplit int `mapstructure:"min_samples_split"`
	// MinSamplesLeaf is the smallest allowed child. Defaults to 1.
	MinSamplesLeaf int `mapstructure:"min_samples_leaf"`
}

// DecisionTree is a CART classifier using gini impurity. Split search is
// exhaustive and deterministic: among equally good splits the lowest feature
// index and then the lowest threshold wins.
type DecisionTree struct {
	fitState
	name            string
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int

	root *treeNode
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	// dist is the class distribution of the training samples that reached a leaf.
	dist []float64
}

// NewDecisionTree creates a [DecisionTree].
func NewDecisionTree(args DecisionTreeArgs) *DecisionTree {
	t := &DecisionTree{
		name:            args.Name,
		maxDepth:        args.MaxDepth,
		minSamplesSplit: args.MinSamplesSplit,
		minSamplesLeaf:  args.MinSamplesLeaf,
	}
	if t.minSamplesSplit < 2 {
		t.minSamplesSplit = 2
	}
	if t.minSamplesLeaf < 1 {
		t.minSamplesLeaf = 1
	}
	return t
}

func (t *DecisionTree) Name() string { return t.name }
func (t *DecisionTree) Kind() Kind   { return KindDecisionTree }

func (t *DecisionTree) Fit(ctx context.Context, features [][]float64, labels []string) error {
	width, err := validateTraining(features, labels)
	if err != nil {
		return err
	}

	t.labels = newLabelSet(labels)
	t.nFeatures = width

	b := newTreeBuilder(ctx, t, features, t.labels.encode(labels))

	root, err := b.build(0, len(features), 1)
	if err != nil {
		t.fitted = false
		return err
	}
	t.root = root
	t.fitted = true
	return nil
}

func (t *DecisionTree) PredictTop(features []float64) (string, error) {
	d, err := t.PredictDistribution(features)
	if err != nil {
		return "", err
	}
	return d.Top(), nil
}

func (t *DecisionTree) PredictDistribution(features []float64) (Distribution, error) {
	if err := t.checkSample(features); err != nil {
		return nil, err
	}

	n := t.root
	for n.left != nil {
		if features[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}

	probs := make([]float64, len(n.dist))
	copy(probs, n.dist)
	return t.labels.distribution(probs), nil
}

// treeBuilder grows a tree over presorted index lists. Every node owns the
// same [lo, hi) window in idx and in each sorted[f]; splitting a node
// partitions those windows stably, so each sorted[f] window stays ordered by
// feature f and no node sorts again.
type treeBuilder struct {
	ctx      context.Context
	tree     *DecisionTree
	x        [][]float64
	y        []int
	nClasses int

	idx      []int
	sorted   [][]int
	goesLeft []bool
	scratch  []int
}

func newTreeBuilder(ctx context.Context, t *DecisionTree, x [][]float64, y []int) *treeBuilder {
	b := &treeBuilder{
		ctx:      ctx,
		tree:     t,
		x:        x,
		y:        y,
		nClasses: len(t.labels.classes),
		idx:      make([]int, len(x)),
		sorted:   make([][]int, t.nFeatures),
		goesLeft: make([]bool, len(x)),
		scratch:  make([]int, len(x)),
	}
	for i := range b.idx {
		b.idx[i] = i
	}
	for f := range b.sorted {
		order := make([]int, len(x))
		copy(order, b.idx)
		sort.SliceStable(order, func(i, j int) bool {
			return x[order[i]][f] < x[order[j]][f]
		})
		b.sorted[f] = order
	}
	return b
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
	found     bool
}

func (b *treeBuilder) build(lo, hi, depth int) (*treeNode, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}

	members := b.idx[lo:hi]
	counts := make([]float64, b.nClasses)
	for _, i := range members {
		counts[b.y[i]]++
	}

	leaf := func() *treeNode {
		dist := make([]float64, len(counts))
		for c, n := range counts {
			dist[c] = n / float64(len(members))
		}
		return &treeNode{dist: dist}
	}

	t := b.tree
	if gini(counts, float64(len(members))) == 0 ||
		len(members) < t.minSamplesSplit ||
		(t.maxDepth > 0 && depth > t.maxDepth) {
		return leaf(), nil
	}

	best := b.bestSplit(lo, hi, counts)
	if !best.found {
		return leaf(), nil
	}

	for _, i := range members {
		b.goesLeft[i] = b.x[i][best.feature] <= best.threshold
	}
	nLeft := b.partition(members)
	for _, order := range b.sorted {
		b.partition(order[lo:hi])
	}

	left, err := b.build(lo, lo+nLeft, depth+1)
	if err != nil {
		return nil, err
	}
	right, err := b.build(lo+nLeft, hi, depth+1)
	if err != nil {
		return nil, err
	}

	return &treeNode{
		feature:   best.feature,
		threshold: best.threshold,
		left:      left,
		right:     right,
	}, nil
}

// partition moves the samples marked in goesLeft to the front of seg, keeping
// relative order on both sides, and returns how many went left.
func (b *treeBuilder) partition(seg []int) int {
	nLeft := 0
	right := b.scratch[:0]
	for _, i := range seg {
		if b.goesLeft[i] {
			seg[nLeft] = i
			nLeft++
		} else {
			right = append(right, i)
		}
	}
	copy(seg[nLeft:], right)
	return nLeft
}

func (b *treeBuilder) bestSplit(lo, hi int, counts []float64) split {
	n := float64(hi - lo)
	minLeaf := b.tree.minSamplesLeaf
	best := split{}

	leftCounts := make([]float64, b.nClasses)
	rightCounts := make([]float64, b.nClasses)

	for f, sorted := range b.sorted {
		order := sorted[lo:hi]
		if b.x[order[0]][f] == b.x[order[len(order)-1]][f] {
			continue
		}

		for c := range leftCounts {
			leftCounts[c] = 0
		}
		copy(rightCounts, counts)

		for pos := 0; pos < len(order)-1; pos++ {
			cls := b.y[order[pos]]
			leftCounts[cls]++
			rightCounts[cls]--

			v, next := b.x[order[pos]][f], b.x[order[pos+1]][f]
			if v == next {
				continue
			}
			nl := float64(pos + 1)
			nr := n - nl
			if pos+1 < minLeaf || len(order)-pos-1 < minLeaf {
				continue
			}

			impurity := (nl*gini(leftCounts, nl) + nr*gini(rightCounts, nr)) / n
			if !best.found || impurity < best.impurity {
				best = split{
					feature:   f,
					threshold: v + (next-v)/2,
					impurity:  impurity,
					found:     true,
				}
			}
		}
	}
	return best
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}
