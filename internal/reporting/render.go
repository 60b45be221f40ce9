// Package reporting renders classify and evaluate reports for people and
// for machines.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spboyer/tissuerank/internal/models"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	// FormatJUnit is only available for evaluation reports.
	FormatJUnit Format = "junit"
)

// ParseFormat validates a format name. An empty name means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatMarkdown, FormatHTML, FormatJSON, FormatJUnit:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected text, markdown, html, json or junit)", s)
	}
}

// Render writes a classify report in the given format.
func Render(w io.Writer, format Format, r *models.Report) error {
	switch format {
	case FormatText, "":
		return WriteText(w, r)
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	default:
		return fmt.Errorf("format %q is not supported for classify reports", format)
	}
}

// RenderEvaluation writes an evaluate report. JUnit output is written by
// [WriteJUnitXML] because it needs an accuracy floor.
func RenderEvaluation(w io.Writer, format Format, r *models.EvaluationReport) error {
	switch format {
	case FormatText, "":
		return WriteEvaluationText(w, r)
	case FormatMarkdown:
		return WriteEvaluationMarkdown(w, r)
	case FormatHTML:
		return WriteEvaluationHTML(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	default:
		return fmt.Errorf("format %q is not supported for evaluation reports", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
