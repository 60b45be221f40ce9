package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/spboyer/tissuerank/internal/classifiers"
	"github.com/spboyer/tissuerank/internal/consensus"
	"github.com/spboyer/tissuerank/internal/ensemble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []ensemble.Result {
	return []ensemble.Result{
		{
			Classifier:   "KNN",
			Kind:         classifiers.KindKNN,
			Top:          "A",
			Distribution: classifiers.Distribution{{Label: "A", Value: 0.7}, {Label: "B", Value: 0.3}},
			Evaluation:   &ensemble.Evaluation{Samples: 4, Correct: 3, Accuracy: 0.75},
		},
		{
			Classifier:   "Decision Tree",
			Kind:         classifiers.KindDecisionTree,
			Top:          "B",
			Distribution: classifiers.Distribution{{Label: "A", Value: 0.45}, {Label: "B", Value: 0.55}},
		},
	}
}

func TestNewReport(t *testing.T) {
	results := sampleResults()
	ranking := consensus.Aggregate(results)

	r := NewReport(CorpusSummary{Source: "corpus.tsv", Specimens: 10}, []string{"APC"}, results, ranking)

	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)
	assert.False(t, r.Timestamp.IsZero())
	assert.Equal(t, []string{"KNN", "Decision Tree"}, r.ClassifierOrder)
	require.Len(t, r.Predictions, 2)
	assert.Equal(t, "knn", r.Predictions[0].Kind)
	assert.NotNil(t, r.Predictions[0].Evaluation)
	assert.Nil(t, r.Predictions[1].Evaluation)

	assert.Equal(t, "A", r.TopTissue())
	assert.Equal(t, 1, r.Agreement())
}

func TestReport_ApplyThreshold(t *testing.T) {
	results := sampleResults()
	r := NewReport(CorpusSummary{}, nil, results, consensus.Aggregate(results))

	r.ApplyThreshold(0.6)
	require.NotNil(t, r.Threshold)
	assert.Equal(t, 0.6, r.Threshold.Threshold)
	assert.Equal(t, []string{"A"}, r.Threshold.Tissues.Tissues())

	r.ApplyThreshold(0)
	assert.Nil(t, r.Threshold)
}

func TestReport_EmptyRanking(t *testing.T) {
	r := NewReport(CorpusSummary{}, nil, nil, nil)
	assert.Equal(t, "", r.TopTissue())
	assert.Equal(t, 0, r.Agreement())
}

func TestReport_JSONFieldNames(t *testing.T) {
	results := sampleResults()
	r := NewReport(CorpusSummary{Source: "s"}, []string{"KRAS"}, results, consensus.Aggregate(results))

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"run_id", "timestamp", "corpus", "mutant_genes", "predictions", "classifier_order", "ranking", "duration_ms"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "threshold")
	assert.NotContains(t, raw, "cached")
}

func TestNewEvaluationReport_SkipsUnevaluated(t *testing.T) {
	r := NewEvaluationReport(CorpusSummary{EvalSize: 4}, sampleResults())

	require.Len(t, r.Evaluations, 1)
	assert.Equal(t, "KNN", r.Evaluations[0].Classifier)
	assert.Equal(t, 0.75, r.Evaluations[0].Evaluation.Accuracy)
}
