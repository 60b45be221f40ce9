package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/tissuerank/internal/consensus"
	"github.com/spboyer/tissuerank/internal/ensemble"
)

// Report is the complete output of a classify run.
type Report struct {
	RunID           string            `json:"run_id"`
	Timestamp       time.Time         `json:"timestamp"`
	Corpus          CorpusSummary     `json:"corpus"`
	MutantGenes     []string          `json:"mutant_genes"`
	Predictions     []Prediction      `json:"predictions"`
	ClassifierOrder []string          `json:"classifier_order"`
	Ranking         consensus.Ranking `json:"ranking"`
	Threshold       *ThresholdSummary `json:"threshold,omitempty"`
	DurationMs      int64             `json:"duration_ms"`
	// Cached is set when the report was served from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// CorpusSummary describes the data the ensemble was trained on.
type CorpusSummary struct {
	Source      string `json:"source"`
	Digest      string `json:"digest"`
	Specimens   int    `json:"specimens"`
	Genes       int    `json:"genes"`
	TissueTypes int    `json:"tissue_types"`
	TrainSize   int    `json:"train_size"`
	EvalSize    int    `json:"eval_size"`
	Stratified  bool   `json:"stratified"`
	Seed        int64  `json:"seed"`
}

// Prediction is one classifier's top call.
type Prediction struct {
	Classifier string               `json:"classifier"`
	Kind       string               `json:"kind"`
	Top        string               `json:"top"`
	Evaluation *ensemble.Evaluation `json:"evaluation,omitempty"`
}

// ThresholdSummary lists the tissues any classifier scored above Threshold.
type ThresholdSummary struct {
	Threshold float64           `json:"threshold"`
	Tissues   consensus.Ranking `json:"tissues"`
}

// NewReport assembles a report from the ensemble results and their ranking.
func NewReport(corpus CorpusSummary, mutant []string, results []ensemble.Result, ranking consensus.Ranking) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Corpus:      corpus,
		MutantGenes: mutant,
		Ranking:     ranking,
	}
	for _, res := range results {
		r.ClassifierOrder = append(r.ClassifierOrder, res.Classifier)
		r.Predictions = append(r.Predictions, Prediction{
			Classifier: res.Classifier,
			Kind:       string(res.Kind),
			Top:        res.Top,
			Evaluation: res.Evaluation,
		})
	}
	return r
}

// ApplyThreshold records the tissues scored above threshold by at least one
// classifier. A non-positive threshold clears it.
func (r *Report) ApplyThreshold(threshold float64) {
	if threshold <= 0 {
		r.Threshold = nil
		return
	}
	r.Threshold = &ThresholdSummary{Threshold: threshold, Tissues: r.Ranking.Above(threshold)}
}

// TopTissue returns the highest ranked tissue, or "" for an empty ranking.
func (r *Report) TopTissue() string {
	if len(r.Ranking) == 0 {
		return ""
	}
	return r.Ranking[0].Tissue
}

// Agreement counts the classifiers whose own top call is the consensus top.
func (r *Report) Agreement() int {
	top := r.TopTissue()
	n := 0
	for _, p := range r.Predictions {
		if top != "" && p.Top == top {
			n++
		}
	}
	return n
}

// EvaluationReport is the output of the evaluate command.
type EvaluationReport struct {
	RunID       string                 `json:"run_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Corpus      CorpusSummary          `json:"corpus"`
	Evaluations []ClassifierEvaluation `json:"evaluations"`
	DurationMs  int64                  `json:"duration_ms"`
}

type ClassifierEvaluation struct {
	Classifier string               `json:"classifier"`
	Kind       string               `json:"kind"`
	Evaluation *ensemble.Evaluation `json:"evaluation"`
}

// NewEvaluationReport collects the evaluated results; results without an
// evaluation are left out.
func NewEvaluationReport(corpus CorpusSummary, results []ensemble.Result) *EvaluationReport {
	r := &EvaluationReport{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Corpus:    corpus,
	}
	for _, res := range results {
		if res.Evaluation == nil {
			continue
		}
		r.Evaluations = append(r.Evaluations, ClassifierEvaluation{
			Classifier: res.Classifier,
			Kind:       string(res.Kind),
			Evaluation: res.Evaluation,
		})
	}
	return r
}
