package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spboyer/tissuerank/internal/models"
	"github.com/spboyer/tissuerank/internal/pipeline"
	"github.com/spboyer/tissuerank/internal/reporting"
	"github.com/spf13/cobra"
)

type evaluateFlags struct {
	runFlags

	format      string
	output      string
	minAccuracy float64
}

func newEvaluateCommand() *cobra.Command {
	var f evaluateFlags

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score every classifier on held-out specimens",
		Long: `Fit every configured classifier on the training split of the corpus and
report its accuracy, a bootstrap confidence interval and per-tissue precision,
recall and F1 on the held-out split.

With --min-accuracy the command fails when any classifier scores below the
floor, and --format junit writes the result as JUnit XML for CI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return evaluateCommandE(cmd, &f)
		},
	}

	f.runFlags.register(cmd)
	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text, markdown, html, json, junit")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file (required for junit)")
	cmd.Flags().Float64Var(&f.minAccuracy, "min-accuracy", 0, "Fail when a classifier's accuracy is below this value")

	return cmd
}

func evaluateCommandE(cmd *cobra.Command, f *evaluateFlags) error {
	format, err := reporting.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if format == reporting.FormatJUnit && f.output == "" {
		return fmt.Errorf("junit output requires --output")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	f.runFlags.apply(cmd, &opts)

	p := pipeline.New(opts)
	ctx := context.Background()

	corpus, err := p.LoadCorpus(ctx)
	if err != nil {
		return err
	}

	stop := f.attachProgress(cmd, p)
	report, err := p.Evaluate(ctx, corpus)
	stop()
	if err != nil {
		return err
	}

	if format == reporting.FormatJUnit {
		if err := reporting.WriteJUnitXML(report, f.minAccuracy, f.output); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "JUnit report saved to: %s\n", f.output) //nolint:errcheck
	} else {
		err := writeReport(cmd.OutOrStdout(), f.output, func(w io.Writer) error {
			return reporting.RenderEvaluation(w, format, report)
		})
		if err != nil {
			return err
		}
	}

	return checkMinimum(report, f.minAccuracy)
}

func checkMinimum(report *models.EvaluationReport, minimum float64) error {
	if minimum <= 0 {
		return nil
	}
	var below []string
	for _, ce := range report.Evaluations {
		if ce.Evaluation.Accuracy < minimum {
			below = append(below, ce.Classifier)
		}
	}
	if len(below) > 0 {
		return &BelowMinimumError{Classifiers: below, Minimum: minimum}
	}
	return nil
}
