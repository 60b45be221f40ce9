package reporting

import (
	"fmt"
)

// InterpretAgreement returns a plain-language label for how many of total
// classifiers named the consensus top tissue as their own top prediction.
func InterpretAgreement(agree, total int) string {
	if total == 0 {
		return "No classifiers reported"
	}
	switch {
	case agree == total:
		return fmt.Sprintf("Unanimous (%d/%d)", agree, total)
	case agree*2 > total:
		return fmt.Sprintf("Majority (%d/%d)", agree, total)
	case agree > 0:
		return fmt.Sprintf("Split (%d/%d)", agree, total)
	default:
		return fmt.Sprintf("No agreement (0/%d)", total)
	}
}

// InterpretAccuracy returns a plain-language label for an accuracy (0–1).
func InterpretAccuracy(accuracy float64) string {
	switch {
	case accuracy > 0.9:
		return "Excellent (>90%)"
	case accuracy >= 0.7:
		return "Good (70-90%)"
	case accuracy >= 0.5:
		return "Fair (50-70%)"
	default:
		return "Poor (<50%)"
	}
}
