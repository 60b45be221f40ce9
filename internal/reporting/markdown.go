package reporting

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/spboyer/tissuerank/internal/ensemble"
	"github.com/spboyer/tissuerank/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// MarkdownReport renders the report as a markdown document.
func MarkdownReport(r *models.Report) string {
	var b strings.Builder

	b.WriteString("## Tissue-of-origin consensus\n\n")
	fmt.Fprintf(&b, "**Mutant genes:** %s | **Top tissue:** %s | **Agreement:** %s\n\n",
		escapeCell(strings.Join(r.MutantGenes, ", ")),
		escapeCell(r.TopTissue()),
		InterpretAgreement(r.Agreement(), len(r.Predictions)))

	b.WriteString("### Top predictions\n\n")
	b.WriteString("| Classifier | Kind | Top prediction | Accuracy |\n")
	b.WriteString("|------------|------|----------------|----------|\n")
	for _, p := range r.Predictions {
		accuracy := missing
		if p.Evaluation != nil {
			accuracy = fmt.Sprintf("%s (%d/%d)", formatProbability(p.Evaluation.Accuracy), p.Evaluation.Correct, p.Evaluation.Samples)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", escapeCell(p.Classifier), p.Kind, escapeCell(p.Top), accuracy)
	}
	b.WriteString("\n")

	b.WriteString("### Ranking by average probability\n\n")
	b.WriteString("| Rank | Tissue | Average |")
	for _, name := range r.ClassifierOrder {
		fmt.Fprintf(&b, " %s |", escapeCell(name))
	}
	b.WriteString("\n|------|--------|---------|")
	for range r.ClassifierOrder {
		b.WriteString("------|")
	}
	b.WriteString("\n")
	for i, e := range r.Ranking {
		fmt.Fprintf(&b, "| %d | %s | %s |", i+1, escapeCell(e.Tissue), formatProbability(e.Average))
		for _, col := range probabilityColumns(e, r.ClassifierOrder) {
			fmt.Fprintf(&b, " %s |", col)
		}
		b.WriteString("\n")
	}

	if r.Threshold != nil {
		fmt.Fprintf(&b, "\n### Tissues with any probability > %s\n\n", formatProbability(r.Threshold.Threshold))
		if len(r.Threshold.Tissues) == 0 {
			b.WriteString("_None._\n")
		}
		for _, e := range r.Threshold.Tissues {
			fmt.Fprintf(&b, "- **%s**: %s\n", e.Tissue, strings.Join(probabilityColumns(e, r.ClassifierOrder), ", "))
		}
	}

	fmt.Fprintf(&b, "\n_Corpus %s: %d specimens, %d genes, %d tissue types. Run `%s`._\n",
		r.Corpus.Source, r.Corpus.Specimens, r.Corpus.Genes, r.Corpus.TissueTypes, r.RunID)
	return b.String()
}

// MarkdownEvaluation renders an evaluate report as a markdown document.
func MarkdownEvaluation(r *models.EvaluationReport) string {
	var b strings.Builder

	b.WriteString("## Ensemble evaluation\n\n")
	fmt.Fprintf(&b, "**Corpus:** %s | **Trained on:** %d | **Evaluated on:** %d | **Seed:** %d\n\n",
		escapeCell(r.Corpus.Source), r.Corpus.TrainSize, r.Corpus.EvalSize, r.Corpus.Seed)

	b.WriteString("| Classifier | Kind | Accuracy | CI | Verdict |\n")
	b.WriteString("|------------|------|----------|----|---------|\n")
	for _, ce := range r.Evaluations {
		ev := ce.Evaluation
		fmt.Fprintf(&b, "| %s | %s | %s (%d/%d) | [%s, %s] | %s |\n",
			escapeCell(ce.Classifier), ce.Kind,
			formatProbability(ev.Accuracy), ev.Correct, ev.Samples,
			formatProbability(ev.Interval.Lower), formatProbability(ev.Interval.Upper),
			InterpretAccuracy(ev.Accuracy))
	}

	for _, ce := range r.Evaluations {
		fmt.Fprintf(&b, "\n### %s\n\n", escapeCell(ce.Classifier))
		b.WriteString("| Tissue | Precision | Recall | F1 | Support |\n")
		b.WriteString("|--------|-----------|--------|----|---------|\n")
		ev := ce.Evaluation
		rows := append(append([]ensemble.ClassMetrics(nil), ev.Classes...), ev.Macro, ev.Weighted)
		for _, c := range rows {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
				escapeCell(c.Label),
				formatProbability(c.Precision),
				formatProbability(c.Recall),
				formatProbability(c.F1),
				c.Support)
		}
	}

	fmt.Fprintf(&b, "\n_Run `%s`._\n", r.RunID)
	return b.String()
}

// WriteMarkdown writes the markdown report.
func WriteMarkdown(w io.Writer, r *models.Report) error {
	_, err := io.WriteString(w, MarkdownReport(r))
	return err
}

// WriteEvaluationMarkdown writes the markdown evaluate report.
func WriteEvaluationMarkdown(w io.Writer, r *models.EvaluationReport) error {
	_, err := io.WriteString(w, MarkdownEvaluation(r))
	return err
}

// WriteHTML renders the markdown report to a standalone HTML page.
func WriteHTML(w io.Writer, r *models.Report) error {
	title := "tissuerank report"
	if top := r.TopTissue(); top != "" {
		title += ": " + top
	}
	return writeHTMLPage(w, title, MarkdownReport(r))
}

// WriteEvaluationHTML renders the markdown evaluate report to a standalone
// HTML page.
func WriteEvaluationHTML(w io.Writer, r *models.EvaluationReport) error {
	return writeHTMLPage(w, "tissuerank evaluation", MarkdownEvaluation(r))
}

func writeHTMLPage(w io.Writer, title, markdown string) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}
