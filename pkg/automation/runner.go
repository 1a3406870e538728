package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy holds the timing knobs of a Runner.
type Policy struct {
	DefaultTimeout      time.Duration
	ClickAttempts       int
	ClickInterval       time.Duration
	ClickAttemptTimeout time.Duration
	DropdownSettle      time.Duration
	OptionTimeout       time.Duration
	ButtonTimeout       time.Duration
	NavExpandSettle     time.Duration
	ViewSettle          time.Duration
	SaveSettle          time.Duration
	ReadyTimeout        time.Duration
	LoadingTimeout      time.Duration
}

// DefaultPolicy returns the timings the target application is tuned for.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTimeout:      30 * time.Second,
		ClickAttempts:       3,
		ClickInterval:       time.Second,
		ClickAttemptTimeout: 5 * time.Second,
		DropdownSettle:      500 * time.Millisecond,
		OptionTimeout:       2 * time.Second,
		ButtonTimeout:       5 * time.Second,
		NavExpandSettle:     500 * time.Millisecond,
		ViewSettle:          time.Second,
		SaveSettle:          2 * time.Second,
		ReadyTimeout:        30 * time.Second,
		LoadingTimeout:      10 * time.Second,
	}
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger actions are reported to.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runner) { r.log = log }
}

// WithSleeper replaces the pause used between attempts and for Wait.
func WithSleeper(s Sleeper) Option {
	return func(r *Runner) { r.sleep = s }
}

// WithPolicy replaces the timing policy.
func WithPolicy(p Policy) Option {
	return func(r *Runner) { r.policy = p }
}

// WithArtifactDir resolves relative screenshot paths under dir.
func WithArtifactDir(dir string) Option {
	return func(r *Runner) { r.artifactDir = dir }
}

// Runner performs resilient UI actions on a Page.
type Runner struct {
	page        Page
	log         logrus.FieldLogger
	sleep       Sleeper
	policy      Policy
	artifactDir string
}

// NewRunner creates a Runner over page.
func NewRunner(page Page, opts ...Option) *Runner {
	r := &Runner{
		page:   page,
		log:    logrus.StandardLogger(),
		sleep:  sleepContext,
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the timing policy in effect.
func (r *Runner) Policy() Policy {
	return r.policy
}

// Navigate opens url and waits for the document to load. A login form on the
// landing page is reported but not treated as a failure.
func (r *Runner) Navigate(ctx context.Context, url string) error {
	r.log.WithField("url", url).Info("Navigating")

	navCtx, cancel := context.WithTimeout(ctx, r.policy.DefaultTimeout)
	defer cancel()
	if err := r.page.Navigate(navCtx, url); err != nil {
		return r.timeoutOr(ctx, navCtx, "navigate", url, r.policy.DefaultTimeout, err)
	}
	if err := r.page.WaitForLoad(navCtx); err != nil {
		return r.timeoutOr(ctx, navCtx, "navigate", url, r.policy.DefaultTimeout, err)
	}

	n, err := r.page.Count(ctx, CSS(`input[type="email"], input[type="password"]`))
	if err == nil && n > 0 {
		r.log.WithField("url", url).Warn("Login page detected, the test may require authentication")
	}
	return nil
}

// Click waits for selector to be visible, scrolls it into view and clicks it,
// retrying transient failures.
func (r *Runner) Click(ctx context.Context, selector string, timeout time.Duration) error {
	timeout = r.timeoutOrDefault(timeout)
	loc := ParseSelector(selector)
	r.log.WithField("selector", selector).Debug("Clicking element")

	if err := r.waitState(ctx, "click", selector, loc, StateVisible, timeout); err != nil {
		return err
	}
	if err := r.page.ScrollIntoView(ctx, loc); err != nil {
		r.log.WithError(err).WithField("selector", selector).Debug("Scroll into view failed")
	}

	attempts := max(r.policy.ClickAttempts, 1)
	var last error
	for i := 1; i <= attempts; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.policy.ClickAttemptTimeout)
		last = r.page.Click(attemptCtx, loc)
		cancel()
		if last == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == attempts {
			break
		}
		r.log.WithFields(logrus.Fields{"selector": selector, "attempt": i}).Debug("Click attempt failed, retrying")
		if err := r.sleep(ctx, r.policy.ClickInterval); err != nil {
			return err
		}
	}
	return &LocatorExhaustedError{
		Target:   "click " + selector,
		Attempts: attempts,
		Last:     last,
	}
}

// Fill clears the field, sets value and fires change and blur.
func (r *Runner) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	timeout = r.timeoutOrDefault(timeout)
	loc := ParseSelector(selector)
	r.log.WithField("selector", selector).Debug("Filling field")

	if err := r.waitState(ctx, "fill", selector, loc, StateVisible, timeout); err != nil {
		return err
	}
	if err := r.page.SetValue(ctx, loc, ""); err != nil {
		return fmt.Errorf("fill %s: clear: %w", selector, err)
	}
	if err := r.page.SetValue(ctx, loc, value); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	for _, ev := range []string{"change", "blur"} {
		if err := r.page.DispatchEvent(ctx, loc, ev); err != nil {
			return fmt.Errorf("fill %s: dispatch %s: %w", selector, ev, err)
		}
	}
	return nil
}

// Verify checks selector against mode. Text and contains modes compare the
// element text with *text and fail with ErrMissingExpectedText when text is
// nil or empty.
func (r *Runner) Verify(ctx context.Context, selector string, mode State, text *string, timeout time.Duration) error {
	timeout = r.timeoutOrDefault(timeout)
	loc := ParseSelector(selector)
	mode = State(strings.ToLower(string(mode)))
	r.log.WithFields(logrus.Fields{"selector": selector, "expected": mode}).Debug("Verifying element")

	switch mode {
	case StateVisible, StateHidden, StateEnabled, StateDisabled:
		return r.waitState(ctx, "verify "+string(mode), selector, loc, mode, timeout)
	case StateText, StateContains:
		if text == nil || *text == "" {
			return fmt.Errorf("verify %s %s: %w", mode, selector, ErrMissingExpectedText)
		}
		return r.waitText(ctx, selector, loc, mode, *text, timeout)
	default:
		return fmt.Errorf("verify %s: %w: %s", selector, ErrUnknownState, mode)
	}
}

// VerifyText checks that the text of selector contains text.
func (r *Runner) VerifyText(ctx context.Context, selector, text string, timeout time.Duration) error {
	return r.Verify(ctx, selector, StateContains, &text, timeout)
}

// WaitForElement waits until selector is visible.
func (r *Runner) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	timeout = r.timeoutOrDefault(timeout)
	r.log.WithField("selector", selector).Debug("Waiting for element")
	return r.waitState(ctx, "wait for", selector, ParseSelector(selector), StateVisible, timeout)
}

// Wait pauses for d.
func (r *Runner) Wait(ctx context.Context, d time.Duration) error {
	r.log.WithField("duration", d).Debug("Waiting")
	return r.sleep(ctx, d)
}

// Screenshot captures the full page to path.
func (r *Runner) Screenshot(ctx context.Context, path string) error {
	path = r.ArtifactPath(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("screenshot %s: %w", path, err)
		}
	}
	r.log.WithField("path", path).Info("Taking screenshot")
	if err := r.page.Screenshot(ctx, path); err != nil {
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return nil
}

// ArtifactPath returns where Screenshot writes name.
func (r *Runner) ArtifactPath(name string) string {
	if r.artifactDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.artifactDir, name)
}

func (r *Runner) waitState(ctx context.Context, op, selector string, loc Locator, state State, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := r.page.WaitFor(waitCtx, loc, state); err != nil {
		return r.timeoutOr(ctx, waitCtx, op, selector, timeout, err)
	}
	return nil
}

const textPollInterval = 100 * time.Millisecond

func (r *Runner) waitText(ctx context.Context, selector string, loc Locator, mode State, want string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var got string
	var lastErr error
	for {
		got, lastErr = r.page.Text(waitCtx, loc)
		if lastErr == nil && textMatches(mode, got, want) {
			return nil
		}
		if err := r.sleep(waitCtx, textPollInterval); err != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("expected %s %q, got %q", mode, want, got)
	}
	return r.timeoutOr(ctx, waitCtx, "verify "+string(mode), selector, timeout, lastErr)
}

func textMatches(mode State, got, want string) bool {
	got = strings.TrimSpace(got)
	if mode == StateContains {
		return strings.Contains(got, want)
	}
	return got == strings.TrimSpace(want)
}

// timeoutOr converts a failure caused by the operation deadline into a
// *TimeoutError. Cancellation of the caller context is returned unchanged.
func (r *Runner) timeoutOr(parent, opCtx context.Context, op, selector string, timeout time.Duration, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Selector: selector, Timeout: timeout, Cause: err}
	}
	return fmt.Errorf("%s %s: %w", op, selector, err)
}

func (r *Runner) timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return r.policy.DefaultTimeout
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
