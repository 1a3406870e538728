package automation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMissingExpectedText is returned by Verify in text and contains mode
	// when no expected text is given.
	ErrMissingExpectedText = errors.New("expected text must be provided for text verification")

	// ErrUnknownState is returned by Verify for modes it does not know.
	ErrUnknownState = errors.New("unknown verification state")
)

// LocatorExhaustedError reports that every attempt or candidate for Target failed.
type LocatorExhaustedError struct {
	Target     string
	Candidates []string
	Attempts   int
	Last       error
}

func (e *LocatorExhaustedError) Error() string {
	var b strings.Builder
	b.WriteString(e.Target)
	switch {
	case len(e.Candidates) > 1:
		fmt.Fprintf(&b, " (tried %d candidates: %s)", len(e.Candidates), strings.Join(e.Candidates, ", "))
	case e.Attempts > 1:
		fmt.Fprintf(&b, " (failed after %d attempts)", e.Attempts)
	}
	if e.Last != nil {
		fmt.Fprintf(&b, ": %v", e.Last)
	}
	return b.String()
}

func (e *LocatorExhaustedError) Unwrap() error {
	return e.Last
}

// TimeoutError reports that a wait did not succeed within its timeout.
type TimeoutError struct {
	Op       string
	Selector string
	Timeout  time.Duration
	Cause    error
}

func (e *TimeoutError) Error() string {
	s := fmt.Sprintf("%s: timed out after %s", e.Op, e.Timeout)
	if e.Selector != "" {
		s = fmt.Sprintf("%s %s: timed out after %s", e.Op, e.Selector, e.Timeout)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
