package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spboyer/tissuerank/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one evaluate run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one evaluated classifier.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure marks a classifier whose accuracy fell below the minimum.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit turns an evaluation report into JUnit XML types. A
// classifier fails when its accuracy is below minAccuracy.
func ConvertToJUnit(report *models.EvaluationReport, minAccuracy float64) *JUnitTestSuites {
	durationSec := float64(report.DurationMs) / 1000.0

	suite := JUnitTestSuite{
		Name:      "tissuerank evaluate",
		Tests:     len(report.Evaluations),
		Time:      durationSec,
		Timestamp: report.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "corpus", Value: report.Corpus.Source},
			{Name: "eval_size", Value: strconv.Itoa(report.Corpus.EvalSize)},
			{Name: "seed", Value: strconv.FormatInt(report.Corpus.Seed, 10)},
			{Name: "min_accuracy", Value: fmt.Sprintf("%.4f", minAccuracy)},
		},
	}

	for _, ce := range report.Evaluations {
		tc := JUnitTestCase{Name: ce.Classifier, Classname: ce.Kind}
		if ce.Evaluation.Accuracy < minAccuracy {
			tc.Failure = buildFailure(ce)
			suite.Failures++
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func buildFailure(ce models.ClassifierEvaluation) *JUnitFailure {
	ev := ce.Evaluation
	var body strings.Builder
	for _, c := range ev.Classes {
		if c.Support > 0 && c.Recall < 1 {
			fmt.Fprintf(&body, "%s: recall=%.2f support=%d\n", c.Label, c.Recall, c.Support)
		}
	}
	return &JUnitFailure{
		Message: fmt.Sprintf("%s: accuracy=%.3f (%d/%d)", ce.Classifier, ev.Accuracy, ev.Correct, ev.Samples),
		Type:    "AccuracyBelowMinimum",
		Body:    body.String(),
	}
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(report *models.EvaluationReport, minAccuracy float64, path string) error {
	suites := ConvertToJUnit(report, minAccuracy)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
