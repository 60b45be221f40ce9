package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/tissuerank/internal/consensus"
	"github.com/spboyer/tissuerank/internal/ensemble"
	"github.com/spboyer/tissuerank/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	rule        = "----------------------------------------------------------"
	tissueWidth = 38
	missing     = "-"
)

var printer = message.NewPrinter(language.English)

// formatProbability renders v rounded to the display precision.
func formatProbability(v float64) string {
	return printer.Sprintf("%v", number.Decimal(consensus.Round(v, consensus.DisplayPlaces), number.MaxFractionDigits(consensus.DisplayPlaces)))
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// probabilityColumns lists e's probability for each classifier in order,
// with a dash where a classifier did not report the tissue.
func probabilityColumns(e consensus.Entry, order []string) []string {
	cols := make([]string, len(order))
	for i, name := range order {
		if v, ok := e.Probability(name); ok {
			cols[i] = formatProbability(v)
		} else {
			cols[i] = missing
		}
	}
	return cols
}

// WriteText writes the plain-text report.
func WriteText(w io.Writer, r *models.Report) error {
	var b strings.Builder

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Mutant gene list:  %s\n", strings.Join(r.MutantGenes, ", "))
	b.WriteString(rule + "\n")
	for _, p := range r.Predictions {
		fmt.Fprintf(&b, "%s top prediction:  %s\n", p.Classifier, p.Top)
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Agreement: %s\n", InterpretAgreement(r.Agreement(), len(r.Predictions)))

	for _, p := range r.Predictions {
		if p.Evaluation != nil {
			b.WriteString("\n")
			writeEvaluationText(&b, p.Classifier, p.Kind, p.Evaluation)
		}
	}

	fmt.Fprintf(&b, "\nRank ordered list, by average probability: (%s):\n\n", strings.Join(r.ClassifierOrder, ", "))
	for _, e := range r.Ranking {
		fmt.Fprintf(&b, "%s  [%s]  average %s\n",
			padRight(e.Tissue, tissueWidth),
			strings.Join(probabilityColumns(e, r.ClassifierOrder), ", "),
			formatProbability(e.Average))
	}

	if r.Threshold != nil {
		fmt.Fprintf(&b, "\nTissues with any probability > %s:\n\n", formatProbability(r.Threshold.Threshold))
		if len(r.Threshold.Tissues) == 0 {
			b.WriteString("(none)\n")
		}
		for _, e := range r.Threshold.Tissues {
			fmt.Fprintf(&b, "%s  [%s]\n", padRight(e.Tissue, tissueWidth), strings.Join(probabilityColumns(e, r.ClassifierOrder), ", "))
		}
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Corpus: %s (%d specimens, %d genes, %d tissue types; trained on %d, evaluated on %d)\n",
		r.Corpus.Source, r.Corpus.Specimens, r.Corpus.Genes, r.Corpus.TissueTypes, r.Corpus.TrainSize, r.Corpus.EvalSize)
	duration := formatDuration(time.Duration(r.DurationMs) * time.Millisecond)
	if r.Cached {
		duration += " (cached)"
	}
	fmt.Fprintf(&b, "Run %s in %s\n", r.RunID, duration)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeEvaluationText(b *strings.Builder, classifier, kind string, ev *ensemble.Evaluation) {
	fmt.Fprintf(b, "%s (%s) accuracy on %d held-out specimens: %s, %d%% CI [%s, %s], %s\n",
		classifier, kind, ev.Samples,
		formatProbability(ev.Accuracy),
		int(ev.Interval.ConfidenceLevel*100+0.5),
		formatProbability(ev.Interval.Lower),
		formatProbability(ev.Interval.Upper),
		InterpretAccuracy(ev.Accuracy))

	fmt.Fprintf(b, "  %s %-10s %-10s %-10s %s\n", padRight("", tissueWidth), "precision", "recall", "f1-score", "support")
	rows := append(append([]ensemble.ClassMetrics(nil), ev.Classes...), ev.Macro, ev.Weighted)
	for _, c := range rows {
		fmt.Fprintf(b, "  %s %-10s %-10s %-10s %d\n",
			padRight(c.Label, tissueWidth),
			formatProbability(c.Precision),
			formatProbability(c.Recall),
			formatProbability(c.F1),
			c.Support)
	}
}

// WriteEvaluationText writes the plain-text output of the evaluate command.
func WriteEvaluationText(w io.Writer, r *models.EvaluationReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Corpus: %s (%d specimens, %d tissue types; trained on %d, evaluated on %d, seed %d)\n",
		r.Corpus.Source, r.Corpus.Specimens, r.Corpus.TissueTypes, r.Corpus.TrainSize, r.Corpus.EvalSize, r.Corpus.Seed)
	for _, ce := range r.Evaluations {
		b.WriteString(rule + "\n")
		writeEvaluationText(&b, ce.Classifier, ce.Kind, ce.Evaluation)
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Run %s in %s\n", r.RunID, formatDuration(time.Duration(r.DurationMs)*time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}
