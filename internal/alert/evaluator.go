package alert

import (
	"fmt"
	"math"

	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/models"
)

// Epsilon is the tolerance of the equals and not_equals conditions.
const Epsilon = 1e-9

// Evaluate reports whether value satisfies condition against threshold.
// It has no side effects; unknown conditions never fire.
func Evaluate(condition models.ConditionType, threshold, value float64) bool {
	switch condition {
	case models.ConditionGreaterThan:
		return value > threshold
	case models.ConditionLessThan:
		return value < threshold
	case models.ConditionEquals:
		return math.Abs(value-threshold) < Epsilon
	case models.ConditionNotEquals:
		return math.Abs(value-threshold) >= Epsilon
	case models.ConditionGreaterThanOrEqual:
		return value >= threshold
	case models.ConditionLessThanOrEqual:
		return value <= threshold
	default:
		return false
	}
}

// EvaluateRule applies rule to value. Inactive rules never fire.
func EvaluateRule(rule *models.AlertRule, value float64) bool {
	if !rule.IsActive {
		return false
	}
	return Evaluate(rule.ConditionType, rule.Threshold, value)
}

// ValidateCondition checks the fields a rule is created or updated with.
func ValidateCondition(condition models.ConditionType, threshold float64) error {
	if !models.IsValidCondition(condition) {
		return fmt.Errorf("%w: unknown condition type %q", apperror.ErrInvalidArgument, condition)
	}
	return validateThreshold(threshold)
}

func validateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return fmt.Errorf("%w: threshold must be a finite number", apperror.ErrInvalidArgument)
	}
	return nil
}

// TestRule evaluates a candidate condition against a sample value without
// touching storage.
func TestRule(condition models.ConditionType, threshold, value float64) (bool, error) {
	if err := ValidateCondition(condition, threshold); err != nil {
		return false, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false, fmt.Errorf("%w: value must be a finite number", apperror.ErrInvalidArgument)
	}
	return Evaluate(condition, threshold, value), nil
}
