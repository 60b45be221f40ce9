package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spboyer/tissuerank/internal/ensemble"
	"github.com/spboyer/tissuerank/internal/spinner"
	"golang.org/x/term"
)

// verboseProgressListener prints one line per ensemble step.
func verboseProgressListener(w io.Writer) ensemble.ProgressListener {
	return func(event ensemble.ProgressEvent) {
		switch event.EventType {
		case ensemble.EventClassifierStart:
			fmt.Fprintf(w, "[%d/%d] Training %s...", event.Index, event.Total, event.Classifier) //nolint:errcheck
		case ensemble.EventClassifierFitted:
			fmt.Fprintf(w, " fitted (%v)\n", time.Duration(event.DurationMs)*time.Millisecond) //nolint:errcheck
		case ensemble.EventClassifierComplete:
			if top, ok := event.Details["top"].(string); ok {
				fmt.Fprintf(w, "  top prediction: %s\n", top) //nolint:errcheck
			}
			if acc, ok := event.Details["accuracy"].(float64); ok {
				fmt.Fprintf(w, "  accuracy: %.3f\n", acc) //nolint:errcheck
			}
		case ensemble.EventEnsembleComplete:
			fmt.Fprintf(w, "Ensemble of %d completed in %v\n\n", event.Total, time.Duration(event.DurationMs)*time.Millisecond) //nolint:errcheck
		}
	}
}

// spinnerProgressListener shows the classifier being trained next to a
// spinner. The caller stops the spinner.
func spinnerProgressListener(s *spinner.Spinner) ensemble.ProgressListener {
	return func(event ensemble.ProgressEvent) {
		if event.EventType == ensemble.EventClassifierStart {
			s.Update(fmt.Sprintf("[%d/%d] Training %s", event.Index, event.Total, event.Classifier))
		}
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
