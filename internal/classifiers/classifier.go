// Package classifiers provides the tissue-type classifiers that make up the
// ensemble. Every algorithm satisfies [Classifier]; callers should depend on
// the interface and obtain instances from [Create].
package classifiers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

type Kind string

const (
	KindKNN                 Kind = "knn"
	KindDecisionTree        Kind = "decision_tree"
	KindOneVsRest           Kind = "one_vs_rest"
	KindLogisticRegression  Kind = "logistic_regression"
	KindCalibratedLinearSVC Kind = "calibrated_linear_svc"
)

var (
	// ErrNotFitted is returned by the predict methods before Fit has succeeded.
	ErrNotFitted = errors.New("classifier has not been fitted")

	// ErrEmptyTrainingSet is returned when Fit receives no samples.
	ErrEmptyTrainingSet = errors.New("training set is empty")

	// ErrSingleMemberClass is returned by calibrated classifiers when a class has
	// too few members to appear on both sides of a calibration fold.
	ErrSingleMemberClass = errors.New("class has a single member")
)

// Classifier is the interface for all tissue-type classifiers.
type Classifier interface {
	// Name returns the display name used in results and error messages.
	Name() string

	// Kind returns the algorithm.
	Kind() Kind

	// Fit trains the classifier in place. features and labels are only read;
	// implementations may keep references to them.
	Fit(ctx context.Context, features [][]float64, labels []string) error

	// PredictTop returns the single most probable label.
	PredictTop(features []float64) (string, error)

	// PredictDistribution returns a probability for every label seen during Fit,
	// in sorted label order.
	//
	// Once Fit returns, PredictTop and PredictDistribution must be safe for
	// concurrent use.
	PredictDistribution(features []float64) (Distribution, error)
}

// Probability is one label's share of a distribution.
type Probability struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Distribution is an ordered probability distribution over labels.
type Distribution []Probability

// Top returns the most probable label. Ties go to the earlier label.
func (d Distribution) Top() string {
	best := -1
	for i, p := range d {
		if best < 0 || p.Value > d[best].Value {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return d[best].Label
}

// Sum returns the total probability mass.
func (d Distribution) Sum() float64 {
	sum := 0.0
	for _, p := range d {
		sum += p.Value
	}
	return sum
}

// Lookup returns the probability of label, if present.
func (d Distribution) Lookup(label string) (float64, bool) {
	for _, p := range d {
		if p.Label == label {
			return p.Value, true
		}
	}
	return 0, false
}

// Create builds a classifier of the given kind. params holds the algorithm's
// settings as decoded from configuration; unknown keys are rejected.
func Create(kind Kind, name string, params map[string]any) (Classifier, error) {
	switch kind {
	case KindKNN:
		var args KNNArgs
		if err := decodeParams(params, &args); err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, name, err)
		}
		args.Name = name
		return NewKNN(args), nil
	case KindDecisionTree:
		var args DecisionTreeArgs
		if err := decodeParams(params, &args); err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, name, err)
		}
		args.Name = name
		return NewDecisionTree(args), nil
	case KindOneVsRest:
		var args OneVsRestArgs
		if err := decodeParams(params, &args); err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, name, err)
		}
		args.Name = name
		ovr, err := NewOneVsRest(args)
		if err != nil {
			return nil, err
		}
		return ovr, nil
	case KindLogisticRegression:
		var args LogisticRegressionArgs
		if err := decodeParams(params, &args); err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, name, err)
		}
		args.Name = name
		return NewLogisticRegression(args), nil
	case KindCalibratedLinearSVC:
		var args CalibratedLinearSVCArgs
		if err := decodeParams(params, &args); err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, name, err)
		}
		args.Name = name
		return NewCalibratedLinearSVC(args), nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid classifier type", kind)
	}
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}

// labelSet maps labels to dense class ids in sorted label order.
type labelSet struct {
	classes []string
	index   map[string]int
}

func newLabelSet(labels []string) labelSet {
	index := make(map[string]int)
	for _, l := range labels {
		index[l] = 0
	}
	classes := make([]string, 0, len(index))
	for l := range index {
		classes = append(classes, l)
	}
	sort.Strings(classes)
	for i, l := range classes {
		index[l] = i
	}
	return labelSet{classes: classes, index: index}
}

func (s labelSet) encode(labels []string) []int {
	ids := make([]int, len(labels))
	for i, l := range labels {
		ids[i] = s.index[l]
	}
	return ids
}

func (s labelSet) distribution(probs []float64) Distribution {
	d := make(Distribution, len(s.classes))
	for i, c := range s.classes {
		d[i] = Probability{Label: c, Value: probs[i]}
	}
	return d
}

// fitState is the bookkeeping shared by every implementation.
type fitState struct {
	labels    labelSet
	nFeatures int
	fitted    bool
}

// validateTraining checks the training inputs and returns the feature width.
func validateTraining(features [][]float64, labels []string) (int, error) {
	if len(features) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(features) != len(labels) {
		return 0, fmt.Errorf("got %d feature rows but %d labels", len(features), len(labels))
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return 0, fmt.Errorf("feature row %d has %d columns, expected %d", i, len(row), width)
		}
	}
	return width, nil
}

func (f *fitState) checkSample(features []float64) error {
	if !f.fitted {
		return ErrNotFitted
	}
	if len(features) != f.nFeatures {
		return fmt.Errorf("sample has %d features, classifier was fitted on %d", len(features), f.nFeatures)
	}
	return nil
}

// normalize scales probs to sum to 1, falling back to uniform when they sum to 0.
func normalize(probs []float64) {
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if sum <= 0 {
		for i := range probs {
			probs[i] = 1 / float64(len(probs))
		}
		return
	}
	for i := range probs {
		probs[i] /= sum
	}
}
