package domain

// StepType is the variant tag of a Step.
type StepType string

const (
	StepNavigate        StepType = "navigate"
	StepClick           StepType = "click"
	StepFill            StepType = "fill"
	StepVerify          StepType = "verify"
	StepWait            StepType = "wait"
	StepScreenshot      StepType = "screenshot"
	StepWaitForSelector StepType = "waitForSelector"
)

// BuilderStepTypes are the step types offered by the step builder, in toolbox order.
var BuilderStepTypes = []StepType{
	StepNavigate,
	StepClick,
	StepFill,
	StepVerify,
	StepWait,
	StepScreenshot,
}

// Known reports whether t is a step type the generator and executor understand.
func (t StepType) Known() bool {
	switch t {
	case StepNavigate, StepClick, StepFill, StepVerify, StepWait, StepScreenshot, StepWaitForSelector:
		return true
	}
	return false
}

// NeedsSelector reports whether the step type targets an element.
func (t StepType) NeedsSelector() bool {
	return t == StepClick || t == StepFill || t == StepVerify || t == StepWaitForSelector
}

// Literal verify expectations. Any other Expected value is text the element must contain.
const (
	ExpectVisible = "visible"
	ExpectHidden  = "hidden"
)

// Timeout defaults and bounds, in milliseconds.
const (
	BuilderDefaultTimeout   = 5000
	GeneratorDefaultTimeout = 30000
	MinStepTimeout          = 1000
	MaxStepTimeout          = 30000
	DefaultWaitMillis       = 1000
	MinWaitMillis           = 100
	MaxWaitMillis           = 10000
)

// Step is one action or assertion of a test case.
type Step struct {
	Type        StepType `json:"type" yaml:"type"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Selector    string   `json:"selector,omitempty" yaml:"selector,omitempty"`
	Value       string   `json:"value,omitempty" yaml:"value,omitempty"`
	Expected    string   `json:"expected,omitempty" yaml:"expected,omitempty"`
	Timeout     int      `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds, 0 = unset
}

// Label is the human label of the step: its description, or its type.
func (s Step) Label() string {
	if s.Description != "" {
		return s.Description
	}
	return string(s.Type)
}

// TimeoutOr returns the step timeout, or def when unset.
func (s Step) TimeoutOr(def int) int {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return def
}

// TestCase is an ordered sequence of steps plus metadata.
// ID is nil until the backend assigns one.
type TestCase struct {
	ID             *int   `json:"id,omitempty" yaml:"id,omitempty"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Steps          []Step `json:"steps" yaml:"steps"`
	ExpectedResult string `json:"expected_result,omitempty" yaml:"expected_result,omitempty"`
	Tags           string `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsActive       *bool  `json:"is_active,omitempty" yaml:"-"`
	OwnerID        int    `json:"owner_id,omitempty" yaml:"-"`
	CreatedAt      *Time  `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt      *Time  `json:"updated_at,omitempty" yaml:"-"`

	// SourceFile is the definition file the case was parsed from, if any.
	SourceFile string `json:"-" yaml:"-"`
}

// IDValue returns the backend id or 0 when unassigned.
func (tc TestCase) IDValue() int {
	if tc.ID == nil {
		return 0
	}
	return *tc.ID
}

// Clone returns a copy whose Steps slice does not alias tc's.
func (tc TestCase) Clone() TestCase {
	out := tc
	out.Steps = append([]Step(nil), tc.Steps...)
	return out
}

// RunStatus is the lifecycle status of a TestRun.
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunPassed  RunStatus = "passed"
	RunFailed  RunStatus = "failed"
	RunError   RunStatus = "error"
)

// IsTerminal reports whether no further transition can happen.
// Anything that is not pending or running is treated as terminal.
func (s RunStatus) IsTerminal() bool {
	return s != RunPending && s != RunRunning
}

// TestRun is one asynchronous execution request as reported by the backend.
type TestRun struct {
	ID             int       `json:"id"`
	TestCaseID     int       `json:"test_case_id"`
	UserID         int       `json:"user_id,omitempty"`
	Status         RunStatus `json:"status"`
	Result         string    `json:"result,omitempty"`
	ExecutionTime  float64   `json:"execution_time,omitempty"` // seconds
	ErrorMessage   string    `json:"error_message,omitempty"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	TracePath      string    `json:"trace_path,omitempty"`
	StartedAt      *Time     `json:"started_at,omitempty"`
	CompletedAt    *Time     `json:"completed_at,omitempty"`
	CreatedAt      *Time     `json:"created_at,omitempty"`
}

// RunRequest is the body of a submit call.
type RunRequest struct {
	TestCaseID     int    `json:"test_case_id"`
	EnvironmentURL string `json:"environment_url,omitempty"`
}
