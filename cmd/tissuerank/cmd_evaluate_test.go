package main

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/tissuerank/internal/ensemble"
	"github.com/spboyer/tissuerank/internal/models"
	"github.com/spboyer/tissuerank/internal/reporting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Text(t *testing.T) {
	cfg := writeProject(t)

	out, err := runCLI(t, "--config", cfg, "evaluate")
	require.NoError(t, err)
	assert.Contains(t, out, "trained on 10, evaluated on 2, seed 27")
	assert.Contains(t, out, "KNN (knn) accuracy on 2 held-out specimens: 1")
	assert.Contains(t, out, "Decision Tree (decision_tree) accuracy on 2 held-out specimens: 1")
}

func TestEvaluate_JSON(t *testing.T) {
	cfg := writeProject(t)

	out, err := runCLI(t, "--config", cfg, "evaluate", "--format", "json", "--seed", "5")
	require.NoError(t, err)

	var report models.EvaluationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Evaluations, 2)
	assert.Equal(t, int64(5), report.Corpus.Seed)
}

func TestEvaluate_JUnit(t *testing.T) {
	cfg := writeProject(t)
	path := filepath.Join(t.TempDir(), "results.xml")

	out, err := runCLI(t, "--config", cfg, "evaluate", "--format", "junit", "-o", path, "--min-accuracy", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "JUnit report saved to: "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var suites reporting.JUnitTestSuites
	require.NoError(t, xml.Unmarshal(data, &suites))
	assert.Equal(t, 2, suites.Tests)
	assert.Equal(t, 0, suites.Failures)

	_, err = runCLI(t, "--config", cfg, "evaluate", "--format", "junit")
	require.ErrorContains(t, err, "requires --output")
}

func TestEvaluate_DocumentFormats(t *testing.T) {
	cfg := writeProject(t)

	tests := []struct {
		format string
		want   []string
	}{
		{"markdown", []string{"## Ensemble evaluation", "| KNN | knn | 1 (2/2) |", "### Decision Tree"}},
		{"md", []string{"## Ensemble evaluation"}},
		{"html", []string{"<!DOCTYPE html>", "<h2>Ensemble evaluation</h2>", "<td>KNN</td>"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := runCLI(t, "--config", cfg, "evaluate", "--format", tt.format)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestEvaluate_Rejects(t *testing.T) {
	cfg := writeProject(t)

	_, err := runCLI(t, "--config", cfg, "evaluate", "--format", "pdf")
	require.ErrorContains(t, err, "unknown format")
}

func TestCheckMinimum(t *testing.T) {
	report := &models.EvaluationReport{Evaluations: []models.ClassifierEvaluation{
		{Classifier: "KNN", Evaluation: evaluation(0.95)},
		{Classifier: "Decision Tree", Evaluation: evaluation(0.6)},
	}}

	require.NoError(t, checkMinimum(report, 0))
	require.NoError(t, checkMinimum(report, 0.5))

	err := checkMinimum(report, 0.8)
	var below *BelowMinimumError
	require.True(t, errors.As(err, &below))
	assert.Equal(t, []string{"Decision Tree"}, below.Classifiers)
	assert.Equal(t, ExitBelowMinimum, exitCode(err))
}

func evaluation(accuracy float64) *ensemble.Evaluation {
	return &ensemble.Evaluation{Samples: 10, Accuracy: accuracy}
}
