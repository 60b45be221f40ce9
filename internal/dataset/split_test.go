package dataset

import (
	"fmt"
	"testing"

	"github.com/spboyer/tissuerank/internal/genes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticCorpus(t *testing.T, counts map[string]int, order []string) *Corpus {
	t.Helper()
	set, err := genes.NewSet([]string{"G1", "G2"})
	require.NoError(t, err)

	c := &Corpus{Genes: set}
	for _, label := range order {
		for i := 0; i < counts[label]; i++ {
			c.Records = append(c.Records, Record{
				ID:       fmt.Sprintf("%s-%d", label, i),
				Label:    label,
				Features: genes.Vector{float64(i % 2), 1},
			})
		}
	}
	return c
}

func ids(s *Set) []string {
	out := make([]string, 0, s.Len())
	for _, r := range s.Records {
		out = append(out, r.ID)
	}
	return out
}

func TestSplit_SizesAndPartition(t *testing.T) {
	corpus := syntheticCorpus(t, map[string]int{"A": 7, "B": 3}, []string{"A", "B"})

	train, eval, err := Split(corpus, SplitOptions{Holdout: 0.2, Seed: 27})
	require.NoError(t, err)

	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, eval.Len())

	all := append(ids(train), ids(eval)...)
	assert.ElementsMatch(t, ids(corpus.All()), all)
}

func TestSplit_HoldoutRoundsUp(t *testing.T) {
	corpus := syntheticCorpus(t, map[string]int{"A": 11}, []string{"A"})

	_, eval, err := Split(corpus, SplitOptions{Holdout: 0.2, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, eval.Len())
}

func TestSplit_Reproducible(t *testing.T) {
	corpus := syntheticCorpus(t, map[string]int{"A": 20, "B": 15, "C": 5}, []string{"A", "B", "C"})

	for _, stratify := range []bool{false, true} {
		t.Run(fmt.Sprintf("stratify=%v", stratify), func(t *testing.T) {
			opts := SplitOptions{Holdout: 0.2, Seed: 27, Stratify: stratify}
			train1, eval1, err := Split(corpus, opts)
			require.NoError(t, err)
			train2, eval2, err := Split(corpus, opts)
			require.NoError(t, err)

			assert.Equal(t, ids(train1), ids(train2))
			assert.Equal(t, ids(eval1), ids(eval2))

			opts.Seed = 28
			train3, _, err := Split(corpus, opts)
			require.NoError(t, err)
			assert.NotEqual(t, ids(train1), ids(train3))
		})
	}
}

func TestSplit_StratifiedKeepsEveryLabelInTraining(t *testing.T) {
	corpus := syntheticCorpus(t, map[string]int{"A": 50, "B": 10, "RARE": 1, "PAIR": 2}, []string{"A", "B", "RARE", "PAIR"})

	train, eval, err := Split(corpus, SplitOptions{Holdout: 0.2, Seed: 3, Stratify: true})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"A", "B", "RARE", "PAIR"}, train.Tissues())

	count := func(s *Set, label string) int {
		n := 0
		for _, r := range s.Records {
			if r.Label == label {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 10, count(eval, "A"))
	assert.Equal(t, 2, count(eval, "B"))
	assert.Equal(t, 0, count(eval, "RARE"))
	assert.Equal(t, 0, count(eval, "PAIR"))
}

func TestSplit_SharesFeatureRows(t *testing.T) {
	corpus := syntheticCorpus(t, map[string]int{"A": 10}, []string{"A"})

	train, _, err := Split(corpus, SplitOptions{Holdout: 0.2, Seed: 27})
	require.NoError(t, err)

	rows := train.Features()
	byID := make(map[string]genes.Vector)
	for _, r := range corpus.Records {
		byID[r.ID] = r.Features
	}
	for i, r := range train.Records {
		assert.Same(t, &byID[r.ID][0], &rows[i][0])
	}
	assert.Len(t, train.Labels(), train.Len())
}

func TestSplit_Errors(t *testing.T) {
	corpus := syntheticCorpus(t, map[string]int{"A": 5}, []string{"A"})

	tests := []struct {
		name    string
		corpus  *Corpus
		opts    SplitOptions
		wantErr string
	}{
		{name: "zero holdout", corpus: corpus, opts: SplitOptions{Holdout: 0}, wantErr: "holdout fraction must be in (0, 1)"},
		{name: "full holdout", corpus: corpus, opts: SplitOptions{Holdout: 1}, wantErr: "holdout fraction must be in (0, 1)"},
		{name: "single specimen", corpus: syntheticCorpus(t, map[string]int{"A": 1}, []string{"A"}), opts: SplitOptions{Holdout: 0.2}, wantErr: "need at least 2 specimens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(tt.corpus, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
