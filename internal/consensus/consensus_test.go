package consensus

import (
	"testing"

	"github.com/spboyer/tissuerank/internal/classifiers"
	"github.com/spboyer/tissuerank/internal/ensemble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(name string, probs ...classifiers.Probability) ensemble.Result {
	return ensemble.Result{Classifier: name, Distribution: probs}
}

func p(label string, v float64) classifiers.Probability {
	return classifiers.Probability{Label: label, Value: v}
}

func TestAggregate_EndToEnd(t *testing.T) {
	results := []ensemble.Result{
		result("KNN", p("A", 0.7), p("B", 0.3)),
		result("Decision Tree", p("A", 0.5), p("B", 0.3), p("C", 0.2)),
	}

	ranking := Aggregate(results)
	require.Len(t, ranking, 3)
	assert.Equal(t, []string{"A", "B", "C"}, ranking.Tissues())

	assert.InDelta(t, 0.6, ranking[0].Average, 1e-12)
	assert.InDelta(t, 0.3, ranking[1].Average, 1e-12)
	assert.InDelta(t, 0.2, ranking[2].Average, 1e-12)

	assert.Equal(t, []string{"KNN", "Decision Tree"}, ranking[0].Classifiers)
	assert.Equal(t, []float64{0.7, 0.5}, ranking[0].Probabilities)
	assert.Equal(t, []string{"Decision Tree"}, ranking[2].Classifiers)
}

func TestAggregate_DenominatorIsReportingCount(t *testing.T) {
	results := []ensemble.Result{
		result("one", p("A", 1)),
		result("two", p("A", 0.2), p("B", 0.8)),
		result("three", p("A", 0.4), p("C", 0.6)),
	}

	ranking := Aggregate(results)

	byTissue := make(map[string]Entry)
	for _, e := range ranking {
		byTissue[e.Tissue] = e
	}
	assert.InDelta(t, (1+0.2+0.4)/3, byTissue["A"].Average, 1e-12)
	assert.Len(t, byTissue["A"].Probabilities, 3)
	assert.InDelta(t, 0.8, byTissue["B"].Average, 1e-12)
	assert.Len(t, byTissue["B"].Probabilities, 1)
	assert.InDelta(t, 0.6, byTissue["C"].Average, 1e-12)

	assert.Equal(t, []string{"B", "C", "A"}, ranking.Tissues())
}

func TestAggregate_LabelsMissingFromFirstClassifierAreKept(t *testing.T) {
	results := []ensemble.Result{
		result("first", p("A", 1)),
		result("second", p("A", 0.1), p("Z", 0.9)),
	}

	ranking := Aggregate(results)
	assert.ElementsMatch(t, []string{"A", "Z"}, ranking.Tissues())
}

func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	results := []ensemble.Result{
		result("one", p("C", 0.25), p("A", 0.25), p("B", 0.5)),
		result("two", p("A", 0.25), p("B", 0.5), p("C", 0.25)),
	}

	for i := 0; i < 20; i++ {
		ranking := Aggregate(results)
		assert.Equal(t, []string{"B", "C", "A"}, ranking.Tissues())
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]ensemble.Result{result("none")}))
}

func TestAggregate_DoesNotModifyInput(t *testing.T) {
	results := []ensemble.Result{
		result("one", p("B", 0.4), p("A", 0.6)),
	}
	before := append(classifiers.Distribution(nil), results[0].Distribution...)

	_ = Aggregate(results)
	assert.Equal(t, before, results[0].Distribution)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.12345, 3, 0.123},
		{2.0 / 3, 3, 0.667},
		{0.5, 0, 1},
		{1, 3, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in, tt.places))
	}
}

func TestEntry_Rounded(t *testing.T) {
	e := Entry{Tissue: "A", Probabilities: []float64{0.66666, 0.33333}, Classifiers: []string{"x", "y"}, Average: 0.5}
	r := e.Rounded(DisplayPlaces)

	assert.Equal(t, []float64{0.667, 0.333}, r.Probabilities)
	assert.Equal(t, 0.5, r.Average)
	assert.Equal(t, []float64{0.66666, 0.33333}, e.Probabilities)

	v, ok := r.Probability("y")
	assert.True(t, ok)
	assert.Equal(t, 0.333, v)
	_, ok = r.Probability("z")
	assert.False(t, ok)
}

func TestRanking_Above(t *testing.T) {
	ranking := Aggregate([]ensemble.Result{
		result("one", p("A", 0.7), p("B", 0.2), p("C", 0.1)),
		result("two", p("A", 0.4), p("B", 0.35), p("C", 0.25)),
	})

	assert.Equal(t, []string{"A", "B"}, ranking.Above(0.3).Tissues())
	assert.Empty(t, ranking.Above(0.9))
	assert.Equal(t, ranking.Tissues(), ranking.Above(0).Tissues())
}
