package domain

import (
	"fmt"
	"strings"
)

// Error is the base error type with context.
type Error struct {
	Phase      string // "config", "scan", "parse", "validate", "generate", "write", "api", "run"
	File       string
	LineNumber int
	Message    string
	Suggestion string
	Cause      error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s]", e.Phase)
	if e.File != "" {
		s += fmt.Sprintf(" %s", e.File)
	}
	if e.LineNumber > 0 {
		s += fmt.Sprintf(":%d", e.LineNumber)
	}
	s += fmt.Sprintf(": %s", e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Suggestion != "" {
		s += fmt.Sprintf(" (hint: %s)", e.Suggestion)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error.
func NewError(phase, file string, line int, message string, cause error) *Error {
	return &Error{
		Phase:      phase,
		File:       file,
		LineNumber: line,
		Message:    message,
		Cause:      cause,
	}
}

// NewErrorWithSuggestion creates a new Error carrying a remediation hint.
func NewErrorWithSuggestion(phase, file string, line int, message, suggestion string, cause error) *Error {
	e := NewError(phase, file, line, message, cause)
	e.Suggestion = suggestion
	return e
}

// Violation is one validation failure. Step is 1-based; 0 means the test case itself.
type Violation struct {
	Step    int
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Step > 0 {
		return fmt.Sprintf("Step %d: %s", v.Step, v.Message)
	}
	return v.Message
}

// ValidationError reports every violation found in a test case.
type ValidationError struct {
	TestName   string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	if e.TestName != "" {
		return fmt.Sprintf("test case %q is invalid: %s", e.TestName, strings.Join(msgs, "; "))
	}
	return "test case is invalid: " + strings.Join(msgs, "; ")
}

// NetworkError reports a failed backend call. StatusCode is 0 when no response arrived.
type NetworkError struct {
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *NetworkError) Error() string {
	s := e.Op
	if e.StatusCode != 0 {
		s += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// ExecutionTimeoutError is synthesized when polling exhausts its attempt budget.
// The backend status of the run stays unresolved.
type ExecutionTimeoutError struct {
	RunID    int
	Attempts int
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("Test execution timed out: run %d still not finished after %d polls", e.RunID, e.Attempts)
}
