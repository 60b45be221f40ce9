package dataset

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/spboyer/tissuerank/internal/genes"
)

// Default split parameters.
const (
	DefaultHoldout = 0.20
	DefaultSeed    = 27
)

// Set is a read-only view over corpus records. Records are shared with the
// corpus, never copied.
type Set struct {
	Genes   *genes.Set
	Records []Record
}

// Len returns the number of specimens in the set.
func (s *Set) Len() int { return len(s.Records) }

// Features returns the feature rows. The rows alias the records' vectors.
func (s *Set) Features() [][]float64 {
	rows := make([][]float64, len(s.Records))
	for i, r := range s.Records {
		rows[i] = r.Features
	}
	return rows
}

// Labels returns the tissue label of every record, in record order.
func (s *Set) Labels() []string {
	labels := make([]string, len(s.Records))
	for i, r := range s.Records {
		labels[i] = r.Label
	}
	return labels
}

// Tissues returns the distinct labels in first-seen order.
func (s *Set) Tissues() []string {
	return distinctLabels(s.Records)
}

// SplitOptions controls the train/eval partition.
type SplitOptions struct {
	// Holdout is the fraction of specimens held out for evaluation, in (0, 1).
	Holdout float64
	Seed    int64
	// Stratify holds out the same fraction of every tissue type. The default
	// random split can leave rare tissue types out of the training side entirely.
	Stratify bool
}

// Split partitions corpus into a training and an evaluation set. The same
// options always produce the same partition.
func Split(corpus *Corpus, opts SplitOptions) (train, eval *Set, err error) {
	if opts.Holdout <= 0 || opts.Holdout >= 1 {
		return nil, nil, fmt.Errorf("holdout fraction must be in (0, 1), got %g", opts.Holdout)
	}
	n := len(corpus.Records)
	if n < 2 {
		return nil, nil, fmt.Errorf("need at least 2 specimens to split, got %d", n)
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	var trainIdx, evalIdx []int
	if opts.Stratify {
		trainIdx, evalIdx = stratifiedIndices(corpus.Records, opts.Holdout, rng)
	} else {
		perm := rng.Perm(n)
		nEval := int(math.Ceil(float64(n) * opts.Holdout))
		if nEval >= n {
			nEval = n - 1
		}
		evalIdx, trainIdx = perm[:nEval], perm[nEval:]
	}

	train = &Set{Genes: corpus.Genes, Records: pick(corpus.Records, trainIdx)}
	eval = &Set{Genes: corpus.Genes, Records: pick(corpus.Records, evalIdx)}

	slog.Debug("corpus split", "train", train.Len(), "eval", eval.Len(),
		"seed", opts.Seed, "stratify", opts.Stratify)
	return train, eval, nil
}

func stratifiedIndices(records []Record, holdout float64, rng *rand.Rand) (train, eval []int) {
	byLabel := make(map[string][]int)
	var order []string
	for i, r := range records {
		if _, ok := byLabel[r.Label]; !ok {
			order = append(order, r.Label)
		}
		byLabel[r.Label] = append(byLabel[r.Label], i)
	}

	for _, label := range order {
		idx := byLabel[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nEval := int(math.Round(float64(len(idx)) * holdout))
		if nEval >= len(idx) {
			nEval = len(idx) - 1
		}
		eval = append(eval, idx[:nEval]...)
		train = append(train, idx[nEval:]...)
	}
	return train, eval
}

func pick(records []Record, idx []int) []Record {
	out := make([]Record, len(idx))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}
