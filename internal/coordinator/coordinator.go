package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/uitestkit/internal/domain"
)

// ErrSessionActive is returned by Run while another session is in progress.
var ErrSessionActive = errors.New("an execution session is already running")

// Result is the outcome of one test case of a session.
type Result struct {
	TestID        int
	TestName      string
	RunID         int // 0 when the submit failed
	Status        domain.RunStatus
	ErrorMessage  string
	ExecutionTime float64 // seconds
	Run           *domain.TestRun
}

// Progress counts completed tests.
type Progress struct {
	Completed int
	Total     int
}

// Tally is the per-status count of a session.
type Tally struct {
	Passed  int
	Failed  int
	Error   int
	Pending int
}

// Summary is emitted once when a session ends.
type Summary struct {
	SessionID string
	Passed    int
	Total     int // completed tests
	Stopped   bool
	Elapsed   time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d/%d passed", s.Passed, s.Total)
}

// Report is what Run returns.
type Report struct {
	SessionID string
	Results   []Result
	Progress  Progress
	Tally     Tally
	Summary   Summary
}

// Listener observes a session. Calls are made from the goroutine running the
// session, except SessionCompleted after Stop, which comes from the caller of Stop.
type Listener interface {
	SessionStarted(id string, tests []domain.TestCase, environmentURL string)
	TestStarted(index int, tc domain.TestCase)
	ResultRecorded(r Result, p Progress, t Tally)
	SessionCompleted(s Summary)
}

// NopListener ignores every event.
type NopListener struct{}

func (NopListener) SessionStarted(string, []domain.TestCase, string) {}
func (NopListener) TestStarted(int, domain.TestCase)                 {}
func (NopListener) ResultRecorded(Result, Progress, Tally)           {}
func (NopListener) SessionCompleted(Summary)                         {}

// SessionInfo is a snapshot of the active session.
type SessionInfo struct {
	ID             string
	EnvironmentURL string
	StartedAt      time.Time
	Current        int
	Progress       Progress
	Tally          Tally
}

// Elapsed is the time since the session started.
func (s SessionInfo) Elapsed() time.Duration {
	return time.Since(s.StartedAt)
}

type session struct {
	id        string
	epoch     uint64
	tests     []domain.TestCase
	envURL    string
	results   []Result
	startedAt time.Time
	current   int
	cancel    context.CancelFunc
	task      *Task
	finished  bool
}

func (s *session) progress() Progress {
	return Progress{Completed: len(s.results), Total: len(s.tests)}
}

func (s *session) tally() Tally {
	t := Tally{Pending: len(s.tests) - len(s.results)}
	for _, r := range s.results {
		switch r.Status {
		case domain.RunPassed:
			t.Passed++
		case domain.RunFailed:
			t.Failed++
		default:
			t.Error++
		}
	}
	return t
}

func (s *session) summary(stopped bool) Summary {
	return Summary{
		SessionID: s.id,
		Passed:    s.tally().Passed,
		Total:     len(s.results),
		Stopped:   stopped,
		Elapsed:   time.Since(s.startedAt),
	}
}

func (s *session) report(stopped bool) Report {
	return Report{
		SessionID: s.id,
		Results:   append([]Result(nil), s.results...),
		Progress:  s.progress(),
		Tally:     s.tally(),
		Summary:   s.summary(stopped),
	}
}

// Coordinator runs batches of backend runs, one test at a time.
type Coordinator struct {
	backend  Backend
	poller   *Poller
	listener Listener
	log      logrus.FieldLogger

	mu      sync.Mutex
	epoch   uint64
	session *session
}

// New creates a Coordinator. A nil listener is replaced by NopListener.
func New(backend Backend, poller *Poller, listener Listener, log logrus.FieldLogger) *Coordinator {
	if listener == nil {
		listener = NopListener{}
	}
	return &Coordinator{backend: backend, poller: poller, listener: listener, log: log}
}

// Run executes tests in order against environmentURL: submit, poll, record.
// A failed submit is recorded as an error result and the batch moves on.
// After Stop, Run returns the results recorded before it and discards
// anything that arrives later.
func (c *Coordinator) Run(ctx context.Context, tests []domain.TestCase, environmentURL string) (Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return Report{}, ErrSessionActive
	}
	c.epoch++
	s := &session{
		id:        uuid.NewString(),
		epoch:     c.epoch,
		tests:     append([]domain.TestCase(nil), tests...),
		envURL:    environmentURL,
		startedAt: time.Now(),
		cancel:    cancel,
	}
	c.session = s
	c.mu.Unlock()

	log := c.log.WithField("session", s.id)
	log.WithFields(logrus.Fields{"tests": len(tests), "environment": environmentURL}).Info("Execution started")
	c.listener.SessionStarted(s.id, s.tests, environmentURL)

	for i, tc := range s.tests {
		if !c.advance(s, i) {
			break
		}
		c.listener.TestStarted(i, tc)

		res := c.runOne(ctx, s, tc, log)
		p, t, ok := c.record(s, res)
		if !ok {
			log.WithField("test", tc.Name).Debug("Discarding result of stopped session")
			break
		}
		log.WithFields(logrus.Fields{"test": tc.Name, "status": res.Status, "completed": p.Completed}).Info("Test finished")
		c.listener.ResultRecorded(res, p, t)
	}

	c.mu.Lock()
	rep := s.report(c.session != s)
	emit := c.finishLocked(s)
	c.mu.Unlock()

	if emit {
		log.WithField("summary", rep.Summary.String()).Info("Execution completed")
		c.listener.SessionCompleted(rep.Summary)
	}
	return rep, nil
}

// Stop ends the active session: the in-flight poll is cancelled, any result
// still arriving is discarded and the summary of what completed is emitted.
// It reports whether a session was active.
func (c *Coordinator) Stop() bool {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return false
	}
	c.session = nil
	c.epoch++
	s.cancel()
	if s.task != nil {
		s.task.Cancel()
	}
	sum := s.summary(true)
	emit := c.finishLocked(s)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"session": s.id, "summary": sum.String()}).Warn("Execution stopped")
	if emit {
		c.listener.SessionCompleted(sum)
	}
	return true
}

// Active returns a snapshot of the running session.
func (c *Coordinator) Active() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	if s == nil {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ID:             s.id,
		EnvironmentURL: s.envURL,
		StartedAt:      s.startedAt,
		Current:        s.current,
		Progress:       s.progress(),
		Tally:          s.tally(),
	}, true
}

func (c *Coordinator) runOne(ctx context.Context, s *session, tc domain.TestCase, log logrus.FieldLogger) Result {
	res := Result{TestID: tc.IDValue(), TestName: tc.Name}

	run, err := c.backend.RunTest(ctx, tc.IDValue(), s.envURL)
	if err != nil {
		log.WithError(err).WithField("test", tc.Name).Warn("Test execution failed")
		res.Status = domain.RunError
		res.ErrorMessage = err.Error()
		return res
	}
	res.RunID = run.ID

	task := c.poller.Start(ctx, run.ID)
	c.mu.Lock()
	if c.session == s {
		s.task = task
	} else {
		task.Cancel()
	}
	c.mu.Unlock()

	final, err := task.Result()
	if final.ID == 0 && err != nil {
		// cancelled; record is discarded by the epoch check
		res.Status = domain.RunError
		res.ErrorMessage = err.Error()
		return res
	}
	res.Run = &final
	res.Status = final.Status
	res.ErrorMessage = final.ErrorMessage
	res.ExecutionTime = final.ExecutionTime
	return res
}

// advance moves the cursor of s if it is still the active session.
func (c *Coordinator) advance(s *session, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s || c.epoch != s.epoch {
		return false
	}
	s.current = index
	return true
}

// record appends r when s is still the active session of the current epoch.
func (c *Coordinator) record(s *session, r Result) (Progress, Tally, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s || c.epoch != s.epoch {
		return Progress{}, Tally{}, false
	}
	s.task = nil
	s.results = append(s.results, r)
	return s.progress(), s.tally(), true
}

// finishLocked clears s and reports whether its summary is still to be emitted.
func (c *Coordinator) finishLocked(s *session) bool {
	if c.session == s {
		c.session = nil
	}
	if s.finished {
		return false
	}
	s.finished = true
	return true
}
