package ensemble

import (
	"context"
	"errors"
	"testing"

	"github.com/spboyer/tissuerank/internal/dataset"
	"github.com/spboyer/tissuerank/internal/genes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestParseEvaluationPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    EvaluationPolicy
		wantErr bool
	}{
		{in: "", want: EvaluateFirst},
		{in: "first", want: EvaluateFirst},
		{in: "all", want: EvaluateAll},
		{in: "none", want: EvaluateNone},
		{in: "some", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEvaluationPolicy(tt.in)
			if tt.wantErr {
				require.ErrorContains(t, err, `unknown evaluation policy "some"`)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_ReportAndAccuracy(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newMock(ctrl, "KNN")

	set := &dataset.Set{Records: []dataset.Record{
		{ID: "e1", Label: "A", Features: genes.Vector{1, 0}},
		{ID: "e2", Label: "A", Features: genes.Vector{1, 1}},
		{ID: "e3", Label: "B", Features: genes.Vector{0, 1}},
		{ID: "e4", Label: "B", Features: genes.Vector{0, 0}},
	}}
	predictions := map[float64]map[float64]string{
		1: {0: "A", 1: "B"},
		0: {1: "B", 0: "B"},
	}
	m.EXPECT().PredictTop(gomock.Any()).DoAndReturn(func(x []float64) (string, error) {
		return predictions[x[0]][x[1]], nil
	}).Times(4)

	ev, err := Evaluate(context.Background(), m, set, 3, 27)
	require.NoError(t, err)

	assert.Equal(t, 4, ev.Samples)
	assert.Equal(t, 3, ev.Correct)
	assert.Equal(t, 0.75, ev.Accuracy)
	assert.Equal(t, 0.75, ev.Interval.Mean)
	assert.True(t, ev.Interval.Contains(0.75))

	require.Len(t, ev.Classes, 2)
	a, b := ev.Classes[0], ev.Classes[1]
	assert.Equal(t, "A", a.Label)
	assert.Equal(t, 1.0, a.Precision)
	assert.Equal(t, 0.5, a.Recall)
	assert.InDelta(t, 2.0/3, a.F1, 1e-12)
	assert.Equal(t, 2, a.Support)

	assert.Equal(t, "B", b.Label)
	assert.InDelta(t, 2.0/3, b.Precision, 1e-12)
	assert.Equal(t, 1.0, b.Recall)
	assert.InDelta(t, 0.8, b.F1, 1e-12)
	assert.Equal(t, 2, b.Support)

	assert.InDelta(t, (2.0/3+0.8)/2, ev.Macro.F1, 1e-12)
	assert.InDelta(t, (2.0/3+0.8)/2, ev.Weighted.F1, 1e-12)
	assert.Equal(t, 4, ev.Weighted.Support)
}

func TestClassificationReport_PredictedOnlyLabel(t *testing.T) {
	rows, macro, _ := classificationReport([]string{"A", "A"}, []string{"A", "Z"})

	require.Len(t, rows, 2)
	assert.Equal(t, "Z", rows[1].Label)
	assert.Equal(t, 0, rows[1].Support)
	assert.Equal(t, 0.0, rows[1].Precision)
	assert.Equal(t, 0.0, rows[1].F1)
	assert.Equal(t, "macro avg", macro.Label)
	assert.InDelta(t, (2.0/3)/2, macro.F1, 1e-12)
}

func TestEvaluate_Errors(t *testing.T) {
	t.Run("empty set", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		_, err := Evaluate(context.Background(), newMock(ctrl, "KNN"), &dataset.Set{}, 2, 1)
		require.ErrorIs(t, err, ErrEmptyEvaluationSet)

		_, err = Evaluate(context.Background(), newMock(ctrl, "KNN"), nil, 2, 1)
		require.ErrorIs(t, err, ErrEmptyEvaluationSet)
	})

	t.Run("prediction failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		m := newMock(ctrl, "KNN")
		errBoom := errors.New("boom")
		m.EXPECT().PredictTop(gomock.Any()).Return("", errBoom)

		set := &dataset.Set{Records: []dataset.Record{{ID: "e1", Label: "A", Features: genes.Vector{1}}}}
		_, err := Evaluate(context.Background(), m, set, 1, 1)
		require.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), "specimen e1")
	})
}
