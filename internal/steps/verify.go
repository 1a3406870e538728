package steps

import "github.com/fjglira/uitestkit/internal/domain"

// VerifyMode is the editor-facing choice for a verify step.
type VerifyMode string

const (
	VerifyVisible VerifyMode = "visible"
	VerifyHidden  VerifyMode = "hidden"
	VerifyText    VerifyMode = "text"
)

// VerifyChoice is the tri-state selector plus the free-text field shown by the editor.
type VerifyChoice struct {
	Mode VerifyMode
	Text string
}

// VerifyChoiceOf expands a stored Expected value into the editor state.
// Empty input opens in visible mode.
func VerifyChoiceOf(expected string) VerifyChoice {
	switch expected {
	case "", domain.ExpectVisible:
		return VerifyChoice{Mode: VerifyVisible}
	case domain.ExpectHidden:
		return VerifyChoice{Mode: VerifyHidden}
	default:
		return VerifyChoice{Mode: VerifyText, Text: expected}
	}
}

// CollapseVerify folds the editor state back into the single stored Expected field.
func CollapseVerify(choice VerifyChoice) string {
	switch choice.Mode {
	case VerifyHidden:
		return domain.ExpectHidden
	case VerifyText:
		return choice.Text
	default:
		return domain.ExpectVisible
	}
}

// IsStateExpectation reports whether expected is one of the literal visibility states.
func IsStateExpectation(expected string) bool {
	return expected == domain.ExpectVisible || expected == domain.ExpectHidden
}
