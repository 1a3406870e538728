package steps

import (
	"strings"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Normalize applies the backend's step normalization: types are lower-cased
// (waitForSelector keeps its casing), unknown types and steps missing
// required fields are dropped, verify defaults to visible and the timeout to
// the builder default. It returns the kept steps and the 1-based positions of
// the dropped ones.
func Normalize(in []domain.Step) ([]domain.Step, []int) {
	var kept []domain.Step
	var dropped []int

	for i, step := range in {
		t := canonicalType(step.Type)
		if !t.Known() {
			dropped = append(dropped, i+1)
			continue
		}

		out := domain.Step{Type: t, Description: step.Description}
		if out.Description == "" {
			out.Description = string(t) + " action"
		}

		if t.NeedsSelector() {
			if step.Selector == "" {
				dropped = append(dropped, i+1)
				continue
			}
			out.Selector = step.Selector
		}

		if t == domain.StepNavigate || t == domain.StepFill || t == domain.StepWait {
			if step.Value == "" && t != domain.StepWait {
				dropped = append(dropped, i+1)
				continue
			}
			out.Value = step.Value
		}

		if t == domain.StepVerify {
			out.Expected = step.Expected
			if out.Expected == "" {
				out.Expected = domain.ExpectVisible
			}
		}

		out.Timeout = step.TimeoutOr(domain.BuilderDefaultTimeout)
		kept = append(kept, out)
	}
	return kept, dropped
}

func canonicalType(t domain.StepType) domain.StepType {
	if strings.EqualFold(string(t), string(domain.StepWaitForSelector)) {
		return domain.StepWaitForSelector
	}
	return domain.StepType(strings.ToLower(string(t)))
}
