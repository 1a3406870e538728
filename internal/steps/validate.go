package steps

import (
	"strings"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Validate checks a test case and returns every violation found, in order.
// The test case is not modified.
func Validate(tc domain.TestCase) []domain.Violation {
	var out []domain.Violation

	if strings.TrimSpace(tc.Name) == "" {
		out = append(out, domain.Violation{Field: "name", Message: "Test case name is required"})
	}
	if len(tc.Steps) == 0 {
		out = append(out, domain.Violation{Field: "steps", Message: "At least one test step is required"})
	}

	for i, step := range tc.Steps {
		out = append(out, ValidateStep(step, i+1)...)
	}
	return out
}

// ValidateStep returns the violations of a single step. number is the 1-based position.
func ValidateStep(step domain.Step, number int) []domain.Violation {
	var out []domain.Violation

	if step.Type == domain.StepNavigate && step.Value == "" {
		out = append(out, domain.Violation{Step: number, Field: "value", Message: "URL is required for navigate steps"})
	}
	if isSelectorStep(step.Type) && step.Selector == "" {
		out = append(out, domain.Violation{Step: number, Field: "selector", Message: "Element selector is required"})
	}
	if step.Type == domain.StepFill && step.Value == "" {
		out = append(out, domain.Violation{Step: number, Field: "value", Message: "Value is required for fill steps"})
	}
	return out
}

// Check validates tc and wraps any violations in a *domain.ValidationError.
func Check(tc domain.TestCase) error {
	violations := Validate(tc)
	if len(violations) == 0 {
		return nil
	}
	return &domain.ValidationError{TestName: tc.Name, Violations: violations}
}

// isSelectorStep lists the types whose selector is mandatory at validation time.
func isSelectorStep(t domain.StepType) bool {
	return t == domain.StepClick || t == domain.StepFill || t == domain.StepVerify
}
