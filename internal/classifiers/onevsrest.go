package classifiers

import (
	"context"
	"fmt"
)

const (
	positiveLabel = "1"
	negativeLabel = "0"
)

// OneVsRestArgs holds the arguments for creating a one-vs-rest wrapper.
type OneVsRestArgs struct {
	Name string
	// Base is the kind of binary estimator fitted per class. Defaults to decision_tree.
	Base Kind `mapstructure:"base"`
	// BaseConfig is passed to [Create] for every per-class estimator.
	BaseConfig map[string]any `mapstructure:"base_config"`
}

// OneVsRest fits one binary estimator per class (that class against all
// others) and reports the normalized positive-class probabilities.
type OneVsRest struct {
	fitState
	name       string
	base       Kind
	baseConfig map[string]any

	estimators []Classifier
}

// NewOneVsRest creates a [OneVsRest] classifier. The base estimator settings
// are checked up front so configuration errors surface before training.
func NewOneVsRest(args OneVsRestArgs) (*OneVsRest, error) {
	base := args.Base
	if base == "" {
		base = KindDecisionTree
	}
	if base == KindOneVsRest {
		return nil, fmt.Errorf("%s %q: base cannot be %s", KindOneVsRest, args.Name, KindOneVsRest)
	}
	if _, err := Create(base, args.Name, args.BaseConfig); err != nil {
		return nil, fmt.Errorf("%s %q: base: %w", KindOneVsRest, args.Name, err)
	}
	return &OneVsRest{name: args.Name, base: base, baseConfig: args.BaseConfig}, nil
}

func (o *OneVsRest) Name() string { return o.name }
func (o *OneVsRest) Kind() Kind   { return KindOneVsRest }

func (o *OneVsRest) Fit(ctx context.Context, features [][]float64, labels []string) error {
	width, err := validateTraining(features, labels)
	if err != nil {
		return err
	}

	o.fitted = false
	o.labels = newLabelSet(labels)
	o.nFeatures = width

	ids := o.labels.encode(labels)
	binary := make([]string, len(labels))
	estimators := make([]Classifier, len(o.labels.classes))

	for c, class := range o.labels.classes {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i, id := range ids {
			if id == c {
				binary[i] = positiveLabel
			} else {
				binary[i] = negativeLabel
			}
		}

		est, err := Create(o.base, o.name+"/"+class, o.baseConfig)
		if err != nil {
			return err
		}
		if err := est.Fit(ctx, features, binary); err != nil {
			return fmt.Errorf("class %q: %w", class, err)
		}
		estimators[c] = est
	}

	o.estimators = estimators
	o.fitted = true
	return nil
}

func (o *OneVsRest) PredictTop(features []float64) (string, error) {
	d, err := o.PredictDistribution(features)
	if err != nil {
		return "", err
	}
	return d.Top(), nil
}

func (o *OneVsRest) PredictDistribution(features []float64) (Distribution, error) {
	if err := o.checkSample(features); err != nil {
		return nil, err
	}

	probs := make([]float64, len(o.estimators))
	for c, est := range o.estimators {
		d, err := est.PredictDistribution(features)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", o.labels.classes[c], err)
		}
		// a missing positive entry counts as zero
		probs[c], _ = d.Lookup(positiveLabel)
	}
	normalize(probs)
	return o.labels.distribution(probs), nil
}
