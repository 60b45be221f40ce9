package ensemble_test

import (
	"context"
	"testing"

	"github.com/spboyer/tissuerank/internal/classifiers"
	"github.com/spboyer/tissuerank/internal/consensus"
	"github.com/spboyer/tissuerank/internal/dataset"
	"github.com/spboyer/tissuerank/internal/ensemble"
	"github.com/spboyer/tissuerank/internal/genes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRunThenAggregate_AveragesOverReportingClassifiers(t *testing.T) {
	set, err := genes.NewSet([]string{"G1", "G2", "G3", "G4"})
	require.NoError(t, err)
	train := &dataset.Set{
		Genes: set,
		Records: []dataset.Record{
			{ID: "s1", Label: "A", Features: genes.Vector{1, 0, 0, 0}},
			{ID: "s2", Label: "A", Features: genes.Vector{1, 1, 0, 0}},
			{ID: "s3", Label: "B", Features: genes.Vector{0, 1, 0, 0}},
			{ID: "s4", Label: "B", Features: genes.Vector{0, 1, 1, 0}},
			{ID: "s5", Label: "C", Features: genes.Vector{0, 0, 0, 1}},
			{ID: "s6", Label: "C", Features: genes.Vector{0, 0, 1, 1}},
		},
	}
	profile, err := genes.Encode([]string{"g1"}, set)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	stub := func(name, top string, dist classifiers.Distribution) classifiers.Classifier {
		m := ensemble.NewMockClassifier(ctrl)
		m.EXPECT().Name().Return(name).AnyTimes()
		m.EXPECT().Kind().Return(classifiers.KindKNN).AnyTimes()
		m.EXPECT().Fit(gomock.Any(), gomock.Len(6), gomock.Any()).Return(nil)
		m.EXPECT().PredictTop([]float64(profile)).Return(top, nil)
		m.EXPECT().PredictDistribution([]float64(profile)).Return(dist, nil)
		return m
	}

	o := ensemble.New([]classifiers.Classifier{
		stub("first", "A", classifiers.Distribution{{Label: "A", Value: 0.7}, {Label: "B", Value: 0.3}}),
		stub("second", "A", classifiers.Distribution{{Label: "A", Value: 0.5}, {Label: "B", Value: 0.3}, {Label: "C", Value: 0.2}}),
	})

	results, err := o.Run(context.Background(), train, profile)
	require.NoError(t, err)

	ranking := consensus.Aggregate(results)
	require.Equal(t, []string{"A", "B", "C"}, ranking.Tissues())
	assert.InDelta(t, 0.6, ranking[0].Average, 1e-9)
	assert.InDelta(t, 0.3, ranking[1].Average, 1e-9)
	assert.InDelta(t, 0.2, ranking[2].Average, 1e-9)
	assert.Equal(t, []string{"second"}, ranking[2].Classifiers)
}
