// Package coordinator submits backend runs, follows them to a terminal status
// and aggregates batches of them into execution sessions.
package coordinator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Polling defaults.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 60
)

// Backend is the part of the API client the coordinator needs.
type Backend interface {
	RunTest(ctx context.Context, testCaseID int, environmentURL string) (*domain.TestRun, error)
	GetRun(ctx context.Context, runID int) (*domain.TestRun, error)
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Poller follows one run until it leaves pending/running.
type Poller struct {
	backend     Backend
	interval    time.Duration
	maxAttempts int
	sleep       Sleeper
	log         logrus.FieldLogger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithSleeper replaces the pause between polls.
func WithSleeper(s Sleeper) PollerOption {
	return func(p *Poller) { p.sleep = s }
}

// WithPollLogger sets the logger polls are traced to.
func WithPollLogger(log logrus.FieldLogger) PollerOption {
	return func(p *Poller) { p.log = log }
}

// NewPoller creates a Poller. Non-positive arguments select the defaults.
func NewPoller(backend Backend, interval time.Duration, maxAttempts int, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	p := &Poller{
		backend:     backend,
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll checks the run every interval and returns the first terminal record;
// nothing is requested after it. A failed check and an exhausted attempt
// budget both end the poll with a synthesized error run and the cause.
// Cancellation of ctx returns ctx.Err() and no run.
func (p *Poller) Poll(ctx context.Context, runID int) (domain.TestRun, error) {
	log := p.log.WithField("run", runID)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		run, err := p.backend.GetRun(ctx, runID)
		if err != nil {
			if ctx.Err() != nil {
				return domain.TestRun{}, ctx.Err()
			}
			log.WithError(err).Warn("Failed to poll test result")
			return errorRun(runID, "Failed to get test result: "+err.Error()), err
		}
		if run.Status.IsTerminal() {
			log.WithFields(logrus.Fields{"status": run.Status, "polls": attempt}).Debug("Run finished")
			return *run, nil
		}
		if attempt == p.maxAttempts {
			break
		}
		log.WithFields(logrus.Fields{"status": run.Status, "attempt": attempt}).Debug("Run in progress")
		if err := p.sleep(ctx, p.interval); err != nil {
			return domain.TestRun{}, err
		}
	}

	timeout := &domain.ExecutionTimeoutError{RunID: runID, Attempts: p.maxAttempts}
	log.Warn(timeout.Error())
	return errorRun(runID, timeout.Error()), timeout
}

// Start runs Poll in the background.
func (p *Poller) Start(ctx context.Context, runID int) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{runID: runID, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		t.run, t.err = p.Poll(ctx, runID)
	}()
	return t
}

// Task is a poll in flight.
type Task struct {
	runID  int
	cancel context.CancelFunc
	done   chan struct{}
	run    domain.TestRun
	err    error
}

// RunID is the run being polled.
func (t *Task) RunID() int { return t.runID }

// Cancel stops the poll, including a request already in flight.
func (t *Task) Cancel() { t.cancel() }

// Done is closed once the poll has ended.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result waits for the poll to end and returns its outcome.
func (t *Task) Result() (domain.TestRun, error) {
	<-t.done
	return t.run, t.err
}

func errorRun(runID int, msg string) domain.TestRun {
	return domain.TestRun{ID: runID, Status: domain.RunError, ErrorMessage: msg}
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
