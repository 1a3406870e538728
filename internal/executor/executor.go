// Package executor runs a test case directly through the automation runtime,
// without generating code first.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/uitestkit/internal/codegen"
	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/steps"
	"github.com/fjglira/uitestkit/pkg/automation"
)

// Result is the outcome of one local execution.
type Result struct {
	TestName       string
	Status         domain.RunStatus
	ErrorMessage   string
	FailedStep     int // 1-based, 0 when no step failed
	ExecutionTime  time.Duration
	ScreenshotPath string
	Screenshots    []string
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Executor runs test cases step by step.
type Executor struct {
	runner *automation.Runner
	log    logrus.FieldLogger
	now    func() time.Time
}

// New creates an Executor driving runner.
func New(runner *automation.Runner, log logrus.FieldLogger) *Executor {
	return &Executor{runner: runner, log: log, now: time.Now}
}

// Execute validates tc and runs its steps in order. When environmentURL is set
// it replaces the value of the first navigate step. A step failure stops the
// run, captures a failure screenshot and yields status failed; an invalid test
// case or a cancelled context yields status error.
func (e *Executor) Execute(ctx context.Context, tc domain.TestCase, environmentURL string) Result {
	tc = InjectEnvironment(tc, environmentURL)
	res := Result{TestName: tc.Name, StartedAt: e.now()}
	log := e.log.WithField("test", tc.Name)

	finish := func(status domain.RunStatus, err error) Result {
		res.Status = status
		if err != nil {
			res.ErrorMessage = err.Error()
		}
		res.CompletedAt = e.now()
		res.ExecutionTime = res.CompletedAt.Sub(res.StartedAt)
		log.WithFields(logrus.Fields{"status": status, "duration": res.ExecutionTime}).Info("Test finished")
		return res
	}

	if err := steps.Check(tc); err != nil {
		return finish(domain.RunError, err)
	}

	log.WithField("steps", len(tc.Steps)).Info("Running test")
	for i, step := range tc.Steps {
		log.WithFields(logrus.Fields{"step": i + 1, "type": step.Type}).Debug(step.Label())
		err := e.runStep(ctx, step, i, &res)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return finish(domain.RunError, ctx.Err())
		}

		res.FailedStep = i + 1
		name := fmt.Sprintf("failure-%d.png", e.now().UnixMilli())
		if serr := e.runner.Screenshot(ctx, name); serr != nil {
			log.WithError(serr).Warn("Failure screenshot not captured")
		} else {
			res.ScreenshotPath = e.runner.ArtifactPath(name)
		}
		return finish(domain.RunFailed, fmt.Errorf("step %d (%s): %w", i+1, step.Label(), err))
	}
	return finish(domain.RunPassed, nil)
}

func (e *Executor) runStep(ctx context.Context, step domain.Step, index int, res *Result) error {
	timeout := time.Duration(step.TimeoutOr(domain.GeneratorDefaultTimeout)) * time.Millisecond
	r := e.runner

	switch step.Type {
	case domain.StepNavigate:
		return r.Navigate(ctx, step.Value)
	case domain.StepClick:
		return r.Click(ctx, step.Selector, timeout)
	case domain.StepFill:
		return r.Fill(ctx, step.Selector, step.Value, timeout)
	case domain.StepVerify:
		switch step.Expected {
		case domain.ExpectVisible, "":
			return r.Verify(ctx, step.Selector, automation.StateVisible, nil, timeout)
		case domain.ExpectHidden:
			return r.Verify(ctx, step.Selector, automation.StateHidden, nil, timeout)
		default:
			return r.VerifyText(ctx, step.Selector, step.Expected, timeout)
		}
	case domain.StepWait:
		return r.Wait(ctx, time.Duration(codegen.WaitMillis(step.Value))*time.Millisecond)
	case domain.StepWaitForSelector:
		return r.WaitForElement(ctx, step.Selector, timeout)
	case domain.StepScreenshot:
		name := codegen.ScreenshotName(index)
		if err := r.Screenshot(ctx, name); err != nil {
			return err
		}
		res.Screenshots = append(res.Screenshots, r.ArtifactPath(name))
		return nil
	default:
		e.log.WithField("type", step.Type).Warn("unknown step type")
		return nil
	}
}

// InjectEnvironment returns a copy of tc whose first navigate step points at
// environmentURL. An empty URL leaves tc unchanged.
func InjectEnvironment(tc domain.TestCase, environmentURL string) domain.TestCase {
	tc = tc.Clone()
	if environmentURL == "" {
		return tc
	}
	for i := range tc.Steps {
		if tc.Steps[i].Type == domain.StepNavigate {
			tc.Steps[i].Value = environmentURL
			break
		}
	}
	return tc
}

// Err returns the result as an error, nil when the test passed.
func (r Result) Err() error {
	if r.Status == domain.RunPassed {
		return nil
	}
	if r.ErrorMessage == "" {
		return errors.New(string(r.Status))
	}
	return errors.New(r.ErrorMessage)
}
