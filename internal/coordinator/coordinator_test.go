package coordinator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/fjglira/uitestkit/internal/api"
	"github.com/fjglira/uitestkit/internal/api/apitest"
	"github.com/fjglira/uitestkit/internal/coordinator"
	"github.com/fjglira/uitestkit/internal/domain"
)

type staticTokens struct{}

func (staticTokens) Token() string { return apitest.Token }
func (staticTokens) Clear() error  { return nil }

// recorder is a coordinator.Listener keeping every event.
type recorder struct {
	mu        sync.Mutex
	events    []string
	tallies   []coordinator.Tally
	summaries []coordinator.Summary
	onStart   func(index int)
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) SessionStarted(id string, tests []domain.TestCase, env string) {
	r.add(fmt.Sprintf("start %d %s", len(tests), env))
}

func (r *recorder) TestStarted(index int, tc domain.TestCase) {
	r.add(fmt.Sprintf("test %d %s", index, tc.Name))
	if r.onStart != nil {
		r.onStart(index)
	}
}

func (r *recorder) ResultRecorded(res coordinator.Result, p coordinator.Progress, t coordinator.Tally) {
	r.add(fmt.Sprintf("result %s %s %d/%d", res.TestName, res.Status, p.Completed, p.Total))
	r.mu.Lock()
	r.tallies = append(r.tallies, t)
	r.mu.Unlock()
}

func (r *recorder) SessionCompleted(s coordinator.Summary) {
	r.add("done " + s.String())
	r.mu.Lock()
	r.summaries = append(r.summaries, s)
	r.mu.Unlock()
}

func (r *recorder) Summaries() []coordinator.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]coordinator.Summary(nil), r.summaries...)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// instant records pauses without waiting.
type instant struct {
	mu    sync.Mutex
	count int
}

func (s *instant) Sleep(ctx context.Context, _ time.Duration) error {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	return ctx.Err()
}

func (s *instant) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func newCase(name string) domain.TestCase {
	return domain.TestCase{Name: name, Steps: []domain.Step{{Type: domain.StepNavigate, Value: "https://crm.example.com"}}}
}

var _ = Describe("Poller", func() {
	var (
		srv     *apitest.Server
		client  *api.Client
		sleeper *instant
		ctx     context.Context
		testID  int
	)

	BeforeEach(func() {
		srv = apitest.NewServer()
		DeferCleanup(srv.Close)
		logger, _ := test.NewNullLogger()
		client = api.New(srv.URL, staticTokens{}, api.WithLogger(logger))
		sleeper = &instant{}
		ctx = context.Background()
		testID = srv.AddTest(newCase("Login"))
	})

	submit := func() int {
		run, err := client.RunTest(ctx, testID, "")
		Expect(err).ToNot(HaveOccurred())
		return run.ID
	}

	newPoller := func(max int) *coordinator.Poller {
		logger, _ := test.NewNullLogger()
		return coordinator.NewPoller(client, 2*time.Second, max,
			coordinator.WithSleeper(sleeper.Sleep), coordinator.WithPollLogger(logger))
	}

	It("should stop polling as soon as the run is terminal", func() {
		srv.Script(testID, domain.RunPending, domain.RunRunning, domain.RunPassed)
		runID := submit()

		run, err := newPoller(60).Poll(ctx, runID)

		Expect(err).ToNot(HaveOccurred())
		Expect(run.Status).To(Equal(domain.RunPassed))
		Expect(srv.Polls(runID)).To(Equal(3))
		Expect(sleeper.Count()).To(Equal(2))
	})

	It("should synthesize a timeout error after the attempt budget", func() {
		srv.Script(testID, domain.RunRunning)
		runID := submit()

		run, err := newPoller(4).Poll(ctx, runID)

		var timeout *domain.ExecutionTimeoutError
		Expect(errors.As(err, &timeout)).To(BeTrue())
		Expect(timeout.Attempts).To(Equal(4))
		Expect(run.Status).To(Equal(domain.RunError))
		Expect(run.ErrorMessage).To(ContainSubstring("Test execution timed out"))
		Expect(srv.Polls(runID)).To(Equal(4))
		Expect(sleeper.Count()).To(Equal(3))
	})

	It("should synthesize an error run when a poll fails", func() {
		run, err := newPoller(60).Poll(ctx, 404)

		var ne *domain.NetworkError
		Expect(errors.As(err, &ne)).To(BeTrue())
		Expect(run.ID).To(Equal(404))
		Expect(run.Status).To(Equal(domain.RunError))
		Expect(run.ErrorMessage).To(HavePrefix("Failed to get test result"))
	})

	It("should cancel a started task, including the request in flight", func() {
		runID := submit()
		srv.SetPollDelay(time.Minute)

		task := newPoller(60).Start(ctx, runID)
		Expect(task.RunID()).To(Equal(runID))
		task.Cancel()

		Eventually(task.Done()).Should(BeClosed())
		_, err := task.Result()
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(srv.Polls(runID)).To(BeZero())
	})
})

var _ = Describe("Coordinator", func() {
	var (
		srv      *apitest.Server
		client   *api.Client
		listener *recorder
		coord    *coordinator.Coordinator
		ctx      context.Context
		cases    []domain.TestCase
		patient  func()
	)

	BeforeEach(func() {
		srv = apitest.NewServer()
		DeferCleanup(srv.Close)
		logger, _ := test.NewNullLogger()
		client = api.New(srv.URL, staticTokens{}, api.WithLogger(logger))
		listener = &recorder{}
		poller := coordinator.NewPoller(client, time.Millisecond, 60, coordinator.WithPollLogger(logger))
		coord = coordinator.New(client, poller, listener, logger)
		ctx = context.Background()

		// patient swaps in a poller that keeps going until stopped
		patient = func() {
			slow := coordinator.NewPoller(client, 10*time.Millisecond, 1_000_000, coordinator.WithPollLogger(logger))
			coord = coordinator.New(client, slow, listener, logger)
		}

		cases = nil
		for i, status := range []domain.RunStatus{domain.RunPassed, domain.RunPassed, domain.RunFailed, domain.RunError, domain.RunPassed} {
			tc := newCase(fmt.Sprintf("case-%d", i+1))
			id := srv.AddTest(tc)
			srv.Script(id, domain.RunRunning, status)
			tc.ID = &id
			cases = append(cases, tc)
		}
	})

	It("should run the batch in order and tally every completion", func() {
		rep, err := coord.Run(ctx, cases, "https://staging.example.com")
		Expect(err).ToNot(HaveOccurred())

		Expect(rep.Tally).To(Equal(coordinator.Tally{Passed: 3, Failed: 1, Error: 1, Pending: 0}))
		Expect(rep.Summary.String()).To(Equal("3/5 passed"))
		Expect(rep.Summary.Stopped).To(BeFalse())
		Expect(rep.Progress).To(Equal(coordinator.Progress{Completed: 5, Total: 5}))
		Expect(rep.SessionID).ToNot(BeEmpty())

		names := make([]string, len(rep.Results))
		for i, r := range rep.Results {
			names[i] = r.TestName
			Expect(r.RunID).ToNot(BeZero())
		}
		Expect(names).To(Equal([]string{"case-1", "case-2", "case-3", "case-4", "case-5"}))
		Expect(rep.Results[2].ErrorMessage).To(Equal("Element not found"))

		Expect(listener.tallies).To(HaveLen(5))
		Expect(listener.tallies[0]).To(Equal(coordinator.Tally{Passed: 1, Pending: 4}))
		Expect(listener.tallies[2]).To(Equal(coordinator.Tally{Passed: 2, Failed: 1, Pending: 2}))
		Expect(listener.Events()[0]).To(Equal("start 5 https://staging.example.com"))
		Expect(listener.Events()).To(ContainElement("result case-4 error 4/5"))
		Expect(listener.Summaries()).To(HaveLen(1))
		Expect(srv.EnvironmentURL(*cases[0].ID)).To(Equal("https://staging.example.com"))

		_, active := coord.Active()
		Expect(active).To(BeFalse())
	})

	It("should record a failed submit as an error and move on without retrying", func() {
		srv.FailSubmit(*cases[1].ID, "Worker unavailable")

		rep, err := coord.Run(ctx, cases[:3], "")
		Expect(err).ToNot(HaveOccurred())

		Expect(rep.Results[1].Status).To(Equal(domain.RunError))
		Expect(rep.Results[1].RunID).To(BeZero())
		Expect(rep.Results[1].ErrorMessage).To(ContainSubstring("Worker unavailable"))
		Expect(rep.Results[2].Status).To(Equal(domain.RunFailed))

		submits := 0
		for _, req := range srv.Requests() {
			if req == fmt.Sprintf("POST /api/tests/%d/run", *cases[1].ID) {
				submits++
			}
		}
		Expect(submits).To(Equal(1))
	})

	It("should discard late results and summarize once after a stop", func() {
		patient()
		srv.Script(*cases[1].ID, domain.RunRunning)
		listener.onStart = func(index int) {
			if index == 1 {
				go func() {
					defer GinkgoRecover()
					Eventually(func() int { return srv.Polls(2) }).Should(BeNumerically(">", 0))
					Expect(coord.Stop()).To(BeTrue())
				}()
			}
		}

		rep, err := coord.Run(ctx, cases, "")
		Expect(err).ToNot(HaveOccurred())

		Expect(rep.Results).To(HaveLen(1))
		Expect(rep.Summary.Stopped).To(BeTrue())
		Expect(rep.Summary.String()).To(Equal("1/1 passed"))
		Expect(listener.Summaries()).To(HaveLen(1))
		Expect(listener.Summaries()[0].Stopped).To(BeTrue())
		Expect(listener.Events()).ToNot(ContainElement(HavePrefix("test 2")))
		Expect(coord.Stop()).To(BeFalse())
	})

	It("should refuse a second session while one is active", func() {
		patient()
		srv.Script(*cases[0].ID, domain.RunRunning)
		started := make(chan struct{})
		listener.onStart = func(int) { close(started) }

		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(done)
			_, _ = coord.Run(ctx, cases[:1], "")
		}()
		Eventually(started).Should(BeClosed())

		info, active := coord.Active()
		Expect(active).To(BeTrue())
		Expect(info.Progress.Total).To(Equal(1))

		_, err := coord.Run(ctx, cases, "")
		Expect(err).To(MatchError(coordinator.ErrSessionActive))

		coord.Stop()
		Eventually(done).Should(BeClosed())
	})
})
