package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spboyer/tissuerank/internal/genes"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // Report produced
	ExitInvalidInput = 1 // Unknown or missing mutant genes
	ExitError        = 2 // Configuration, corpus or training error
	ExitBelowMinimum = 3 // evaluate: a classifier missed --min-accuracy
)

// BelowMinimumError indicates that evaluation ran, but at least one
// classifier scored below the requested accuracy.
type BelowMinimumError struct {
	Classifiers []string
	Minimum     float64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("%d classifier(s) below minimum accuracy %g: %v", len(e.Classifiers), e.Minimum, e.Classifiers)
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var unknown *genes.UnknownGeneError
	if errors.As(err, &unknown) || errors.Is(err, genes.ErrNoGenes) {
		return ExitInvalidInput
	}

	var below *BelowMinimumError
	if errors.As(err, &below) {
		return ExitBelowMinimum
	}

	return ExitError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
