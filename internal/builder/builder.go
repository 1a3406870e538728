package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/steps"
)

// Builder edits one test case's ordered step sequence.
type Builder struct {
	tc domain.TestCase
}

// New creates a Builder over a copy of tc.
func New(tc domain.TestCase) *Builder {
	b := &Builder{}
	b.Load(tc)
	return b
}

// Load replaces the edited test case with a copy of tc.
func (b *Builder) Load(tc domain.TestCase) {
	b.tc = tc.Clone()
	if b.tc.ExpectedResult == "" {
		b.tc.ExpectedResult = "pass"
	}
}

// Reset starts over with an empty, unsaved test case.
func (b *Builder) Reset() {
	b.tc = domain.TestCase{ExpectedResult: "pass"}
}

// TestCase returns a copy of the edited test case.
func (b *Builder) TestCase() domain.TestCase {
	return b.tc.Clone()
}

// SetMeta updates the test case fields edited outside the step list.
func (b *Builder) SetMeta(name, description, expectedResult, tags string) {
	b.tc.Name = name
	b.tc.Description = description
	if expectedResult != "" {
		b.tc.ExpectedResult = expectedResult
	}
	b.tc.Tags = tags
}

// Len returns the number of steps.
func (b *Builder) Len() int {
	return len(b.tc.Steps)
}

// AddStep appends a step of type t with builder defaults and returns its index.
func (b *Builder) AddStep(t domain.StepType) (int, error) {
	if !isBuilderType(t) {
		return -1, fmt.Errorf("unsupported step type %q", t)
	}
	b.tc.Steps = append(b.tc.Steps, domain.Step{
		Type:     t,
		Expected: domain.ExpectVisible,
		Timeout:  domain.BuilderDefaultTimeout,
	})
	return len(b.tc.Steps) - 1, nil
}

// Form is the editor state for one step.
type Form struct {
	Description string
	Selector    string
	Value       string
	Timeout     int // 0 keeps the builder default
	Verify      steps.VerifyChoice
}

// FormFor returns the editor state of the step at index, expanding verify expectations.
func (b *Builder) FormFor(index int) (Form, error) {
	if err := b.checkIndex(index); err != nil {
		return Form{}, err
	}
	s := b.tc.Steps[index]
	return Form{
		Description: s.Description,
		Selector:    s.Selector,
		Value:       s.Value,
		Timeout:     s.TimeoutOr(domain.BuilderDefaultTimeout),
		Verify:      steps.VerifyChoiceOf(s.Expected),
	}, nil
}

// EditStep applies a form to the step at index. The step is left untouched when
// the form fails its per-save checks.
func (b *Builder) EditStep(index int, f Form) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}
	step := b.tc.Steps[index]

	switch {
	case step.Type == domain.StepNavigate && f.Value == "":
		return fmt.Errorf("URL is required for navigate steps")
	case (step.Type == domain.StepClick || step.Type == domain.StepFill || step.Type == domain.StepVerify) && f.Selector == "":
		return fmt.Errorf("element selector is required")
	case step.Type == domain.StepFill && f.Value == "":
		return fmt.Errorf("value is required for fill steps")
	case step.Type == domain.StepVerify && f.Verify.Mode == steps.VerifyText && f.Verify.Text == "":
		return fmt.Errorf("expected text is required")
	case step.Type == domain.StepWait:
		ms, err := strconv.Atoi(strings.TrimSpace(f.Value))
		if err != nil || ms < domain.MinWaitMillis {
			return fmt.Errorf("wait time must be at least %dms", domain.MinWaitMillis)
		}
		if ms > domain.MaxWaitMillis {
			return fmt.Errorf("wait time must be at most %dms", domain.MaxWaitMillis)
		}
	}

	timeout := f.Timeout
	if timeout == 0 {
		timeout = domain.BuilderDefaultTimeout
	}
	if timeout < domain.MinStepTimeout || timeout > domain.MaxStepTimeout {
		return fmt.Errorf("timeout must be between %d and %d ms", domain.MinStepTimeout, domain.MaxStepTimeout)
	}

	step.Description = f.Description
	step.Selector = f.Selector
	step.Value = f.Value
	step.Timeout = timeout
	if step.Type == domain.StepVerify {
		step.Expected = steps.CollapseVerify(f.Verify)
	}
	b.tc.Steps[index] = step
	return nil
}

// RemoveStep deletes the step at index.
func (b *Builder) RemoveStep(index int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}
	b.tc.Steps = append(b.tc.Steps[:index], b.tc.Steps[index+1:]...)
	return nil
}

// MoveStep moves the step at from so it ends up at position to. The other
// steps keep their relative order.
func (b *Builder) MoveStep(from, to int) error {
	if err := b.checkIndex(from); err != nil {
		return err
	}
	if err := b.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	moved := b.tc.Steps[from]
	rest := append(append([]domain.Step(nil), b.tc.Steps[:from]...), b.tc.Steps[from+1:]...)
	out := make([]domain.Step, 0, len(b.tc.Steps))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	b.tc.Steps = out
	return nil
}

// Row is a display row of the step list.
type Row struct {
	Number  int // position + 1
	Step    domain.Step
	Summary string
}

// Rows renders the step list for display.
func (b *Builder) Rows() []Row {
	rows := make([]Row, len(b.tc.Steps))
	for i, s := range b.tc.Steps {
		rows[i] = Row{Number: i + 1, Step: s, Summary: Summarize(s)}
	}
	return rows
}

// Validate returns every violation of the edited test case.
func (b *Builder) Validate() []domain.Violation {
	return steps.Validate(b.tc)
}

// Summarize is the one-line detail shown next to a step.
func Summarize(s domain.Step) string {
	switch s.Type {
	case domain.StepNavigate:
		return "URL: " + s.Value
	case domain.StepClick:
		return "Element: " + s.Selector
	case domain.StepFill:
		return fmt.Sprintf("Field: %s, Value: %s", s.Selector, s.Value)
	case domain.StepVerify:
		return fmt.Sprintf("Element: %s, Expected: %s", s.Selector, s.Expected)
	case domain.StepWait:
		return fmt.Sprintf("Wait: %sms", s.Value)
	case domain.StepScreenshot:
		return "Take screenshot"
	default:
		return ""
	}
}

func (b *Builder) checkIndex(i int) error {
	if i < 0 || i >= len(b.tc.Steps) {
		return fmt.Errorf("step %d does not exist (have %d)", i+1, len(b.tc.Steps))
	}
	return nil
}

func isBuilderType(t domain.StepType) bool {
	for _, bt := range domain.BuilderStepTypes {
		if bt == t {
			return true
		}
	}
	return false
}
