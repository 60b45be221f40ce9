package ensemble

import "fmt"

// TrainingError reports a classifier whose Fit failed. The run stops at the
// first one.
type TrainingError struct {
	Classifier string
	Err        error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training %s: %v", e.Classifier, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// DistributionIntegrityError reports a probability distribution that is not
// a distribution. Label is empty when the failure is the sum rather than a
// single value.
type DistributionIntegrityError struct {
	Classifier string
	Sum        float64
	Label      string
	Value      float64
}

func (e *DistributionIntegrityError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s: probability %g for %q is outside [0, 1]", e.Classifier, e.Value, e.Label)
	}
	return fmt.Sprintf("%s: probabilities sum to %g, expected 1", e.Classifier, e.Sum)
}
