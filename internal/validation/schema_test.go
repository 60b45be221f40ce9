package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validConfigYAML = `corpus:
  path: data/corpus.tsv.gz
split:
  holdout: 0.25
  seed: 7
  stratify: true
ensemble:
  timeout: 30
  evaluate: all
  workers: 2
  classifiers:
    - name: KNN
      type: knn
      config:
        neighbors: 3
    - name: Trees
      type: one_vs_rest
      config:
        base: decision_tree
        base_config:
          max_depth: 4
report:
  format: markdown
  threshold: 0.4
cache:
  enabled: true
  dir: .cache
`

const invalidConfigYAML = `split:
  holdout: 1.5
ensemble:
  evaluate: sometimes
  classifiers:
    - name: Forest
      type: random_forest
report:
  format: pdf
`

func joinErrs(errs []string) string {
	return strings.Join(errs, "\n")
}

func TestValidateConfigBytes_Valid(t *testing.T) {
	errs := ValidateConfigBytes([]byte(validConfigYAML))
	require.Empty(t, errs, "valid config should have no errors")
}

func TestValidateConfigBytes_Empty(t *testing.T) {
	require.Empty(t, ValidateConfigBytes(nil))
	require.Empty(t, ValidateConfigBytes([]byte("# nothing here\n")))
}

func TestValidateConfigBytes_Invalid(t *testing.T) {
	errs := ValidateConfigBytes([]byte(invalidConfigYAML))
	require.NotEmpty(t, errs, "invalid config should have errors")

	joined := joinErrs(errs)
	require.Contains(t, joined, "/split/holdout")
	require.Contains(t, joined, "/ensemble/evaluate")
	require.Contains(t, joined, "/ensemble/classifiers/0/type")
	require.Contains(t, joined, "/report/format")
}

func TestValidateConfigBytes_UnknownKey(t *testing.T) {
	errs := ValidateConfigBytes([]byte("defaults:\n  engine: mock\n"))
	require.NotEmpty(t, errs)
	require.Contains(t, joinErrs(errs), "defaults")
}

func TestValidateConfigBytes_MissingClassifierType(t *testing.T) {
	errs := ValidateConfigBytes([]byte("ensemble:\n  classifiers:\n    - name: KNN\n"))
	require.NotEmpty(t, errs)
	require.Contains(t, joinErrs(errs), "type")
}

func TestValidateConfigBytes_BadYAML(t *testing.T) {
	errs := ValidateConfigBytes([]byte("split: [unclosed"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "YAML parse error")
}

func TestError(t *testing.T) {
	err := &Error{Path: ".tissuerank.yaml", Problems: []string{"/a: bad", "/b: worse"}}
	require.Equal(t, "invalid config .tissuerank.yaml:\n  /a: bad\n  /b: worse", err.Error())
}
