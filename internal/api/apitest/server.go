// Package apitest runs an in-memory backend for exercising the API client.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Fixed account of the fake backend.
const (
	Username = "ada"
	Password = "lovelace"
	Token    = "token-ada"
)

// Backend is the state behind a fake server.
type Backend struct {
	mu sync.Mutex

	tests    map[int]*domain.TestCase
	runs     map[int]*domain.TestRun
	nextTest int
	nextRun  int

	scripts      map[int][]domain.RunStatus
	submitErrors map[int]string
	pollDelay    time.Duration

	polls    map[int]int
	requests []string
	lastEnv  map[int]string
}

// Server is a running fake backend.
type Server struct {
	*Backend
	*httptest.Server
}

// NewServer starts a fake backend. Close it when done.
func NewServer() *Server {
	b := &Backend{
		tests:        map[int]*domain.TestCase{},
		runs:         map[int]*domain.TestRun{},
		scripts:      map[int][]domain.RunStatus{},
		submitErrors: map[int]string{},
		polls:        map[int]int{},
		lastEnv:      map[int]string{},
	}
	return &Server{Backend: b, Server: httptest.NewServer(b.Router())}
}

// Router returns the HTTP routes of the backend.
func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", b.login)
			r.Post("/register", b.register)
			r.Post("/logout", b.logout)
			r.With(b.authenticated).Get("/me", b.me)
		})
		r.Route("/tests", func(r chi.Router) {
			r.Use(b.authenticated)
			r.Get("/", b.listTests)
			r.Post("/", b.createTest)
			r.Get("/{id}", b.getTest)
			r.Put("/{id}", b.updateTest)
			r.Delete("/{id}", b.deleteTest)
			r.Post("/{id}/run", b.runTest)
			r.Get("/{id}/runs", b.testRuns)
		})
		r.Route("/results", func(r chi.Router) {
			r.Use(b.authenticated)
			r.Get("/runs", b.listRuns)
			r.Get("/runs/{id}", b.getRun)
			r.Get("/dashboard", b.dashboard)
			r.Get("/trends", b.trends)
		})
	})
	return r
}

// AddTest stores tc and returns its id.
func (b *Backend) AddTest(tc domain.TestCase) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addTestLocked(tc)
}

func (b *Backend) addTestLocked(tc domain.TestCase) int {
	b.nextTest++
	id := b.nextTest
	active := true
	tc = tc.Clone()
	tc.ID = &id
	tc.IsActive = &active
	tc.OwnerID = 1
	if tc.ExpectedResult == "" {
		tc.ExpectedResult = "pass"
	}
	b.tests[id] = &tc
	return id
}

// Script sets the statuses runs of a test case report on successive polls.
// The last status repeats. Unscripted runs pass on the first poll.
func (b *Backend) Script(testID int, statuses ...domain.RunStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts[testID] = statuses
}

// FailSubmit makes submitting a test case fail with detail.
func (b *Backend) FailSubmit(testID int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitErrors[testID] = detail
}

// SetPollDelay delays every run lookup by d.
func (b *Backend) SetPollDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pollDelay = d
}

// Test returns a copy of a stored test case.
func (b *Backend) Test(id int) (domain.TestCase, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tc, ok := b.tests[id]
	if !ok {
		return domain.TestCase{}, false
	}
	return tc.Clone(), true
}

// Polls returns how many times run id was looked up.
func (b *Backend) Polls(runID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls[runID]
}

// EnvironmentURL returns the environment URL of the last submit for a test case.
func (b *Backend) EnvironmentURL(testID int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastEnv[testID]
}

// Requests returns "METHOD /path?query" for every request received.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		line := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			line += "?" + r.URL.RawQuery
		}
		b.mu.Lock()
		b.requests = append(b.requests, line)
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			fail(w, r, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func fail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"detail": detail})
}

func idParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		fail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.Username != Username || in.Password != Password {
		fail(w, r, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	render.JSON(w, r, map[string]string{"access_token": Token, "token_type": "bearer"})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		fail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.Username == Username {
		fail(w, r, http.StatusBadRequest, "Username already registered")
		return
	}
	render.JSON(w, r, map[string]any{"id": 2, "username": in.Username, "email": in.Email, "is_active": true})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"message": "Successfully logged out"})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"id": 1, "username": Username, "email": "ada@example.com", "is_active": true,
		"created_at": "2025-01-02T03:04:05.000001",
	})
}

func (b *Backend) listTests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	tags := q.Get("tags")

	b.mu.Lock()
	defer b.mu.Unlock()
	out := []domain.TestCase{}
	for _, id := range sortedKeys(b.tests) {
		tc := b.tests[id]
		if !*tc.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(tc.Name+" "+tc.Description), search) {
			continue
		}
		if tags != "" && !strings.Contains(tc.Tags, tags) {
			continue
		}
		out = append(out, tc.Clone())
	}
	render.JSON(w, r, paginate(out, q))
}

func (b *Backend) createTest(w http.ResponseWriter, r *http.Request) {
	var tc domain.TestCase
	if err := render.DecodeJSON(r.Body, &tc); err != nil {
		fail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if len(tc.Steps) == 0 {
		fail(w, r, http.StatusBadRequest, "Test case must have at least one step")
		return
	}
	b.mu.Lock()
	id := b.addTestLocked(tc)
	out := b.tests[id].Clone()
	b.mu.Unlock()
	render.JSON(w, r, out)
}

func (b *Backend) getTest(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	tc, ok := b.tests[id]
	if !ok || !*tc.IsActive {
		fail(w, r, http.StatusNotFound, "Test case not found")
		return
	}
	render.JSON(w, r, tc.Clone())
}

func (b *Backend) updateTest(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	var in struct {
		Name           *string       `json:"name"`
		Description    *string       `json:"description"`
		Steps          []domain.Step `json:"steps"`
		ExpectedResult *string       `json:"expected_result"`
		Tags           *string       `json:"tags"`
		IsActive       *bool         `json:"is_active"`
	}
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		fail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tc, ok := b.tests[id]
	if !ok {
		fail(w, r, http.StatusNotFound, "Test case not found")
		return
	}
	if in.Name != nil {
		tc.Name = *in.Name
	}
	if in.Description != nil {
		tc.Description = *in.Description
	}
	if in.Steps != nil {
		tc.Steps = in.Steps
	}
	if in.ExpectedResult != nil {
		tc.ExpectedResult = *in.ExpectedResult
	}
	if in.Tags != nil {
		tc.Tags = *in.Tags
	}
	if in.IsActive != nil {
		tc.IsActive = in.IsActive
	}
	render.JSON(w, r, tc.Clone())
}

func (b *Backend) deleteTest(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	tc, ok := b.tests[id]
	if !ok {
		fail(w, r, http.StatusNotFound, "Test case not found")
		return
	}
	inactive := false
	tc.IsActive = &inactive
	render.JSON(w, r, map[string]string{"message": "Test case deleted successfully"})
}

func (b *Backend) runTest(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	var in domain.RunRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		fail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if detail, ok := b.submitErrors[id]; ok {
		fail(w, r, http.StatusInternalServerError, detail)
		return
	}
	if _, ok := b.tests[id]; !ok {
		fail(w, r, http.StatusNotFound, "Test case not found")
		return
	}
	b.nextRun++
	now := domain.Time{Time: time.Now().UTC()}
	run := &domain.TestRun{ID: b.nextRun, TestCaseID: id, UserID: 1, Status: domain.RunPending, CreatedAt: &now}
	b.runs[run.ID] = run
	b.lastEnv[id] = in.EnvironmentURL
	render.JSON(w, r, *run)
}

func (b *Backend) getRun(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	b.mu.Lock()
	delay := b.pollDelay
	b.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	run, ok := b.runs[id]
	if !ok {
		fail(w, r, http.StatusNotFound, "Test run not found")
		return
	}
	b.polls[id]++
	run.Status = b.statusAt(run.TestCaseID, b.polls[id])
	if run.Status.IsTerminal() && run.CompletedAt == nil {
		now := domain.Time{Time: time.Now().UTC()}
		run.CompletedAt = &now
		run.ExecutionTime = 1.5
		if run.Status == domain.RunFailed {
			run.ErrorMessage = "Element not found"
		}
	}
	render.JSON(w, r, *run)
}

func (b *Backend) statusAt(testID, poll int) domain.RunStatus {
	script := b.scripts[testID]
	if len(script) == 0 {
		return domain.RunPassed
	}
	if poll > len(script) {
		return script[len(script)-1]
	}
	return script[poll-1]
}

func (b *Backend) testRuns(w http.ResponseWriter, r *http.Request) {
	id, _ := idParam(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tests[id]; !ok {
		fail(w, r, http.StatusNotFound, "Test case not found")
		return
	}
	render.JSON(w, r, paginate(b.runsWhere(func(run *domain.TestRun) bool { return run.TestCaseID == id }), r.URL.Query()))
}

func (b *Backend) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status_filter")
	testID, _ := strconv.Atoi(q.Get("test_case_id"))

	b.mu.Lock()
	defer b.mu.Unlock()
	runs := b.runsWhere(func(run *domain.TestRun) bool {
		return (status == "" || string(run.Status) == status) && (testID == 0 || run.TestCaseID == testID)
	})
	render.JSON(w, r, paginate(runs, q))
}

func (b *Backend) runsWhere(keep func(*domain.TestRun) bool) []domain.TestRun {
	out := []domain.TestRun{}
	keys := sortedKeys(b.runs)
	// newest first
	for i := len(keys) - 1; i >= 0; i-- {
		if run := b.runs[keys[i]]; keep(run) {
			out = append(out, *run)
		}
	}
	return out
}

func (b *Backend) dashboard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := map[string]int{}
	var recent []map[string]any
	for _, run := range b.runsWhere(func(*domain.TestRun) bool { return true }) {
		counts[string(run.Status)]++
		if len(recent) < 10 {
			recent = append(recent, map[string]any{
				"id": run.ID, "test_case_id": run.TestCaseID, "status": run.Status,
				"execution_time": run.ExecutionTime, "created_at": run.CreatedAt,
			})
		}
	}
	rate := 0.0
	if done := counts["passed"] + counts["failed"]; done > 0 {
		rate = float64(counts["passed"]) / float64(done) * 100
	}
	active := 0
	for _, tc := range b.tests {
		if *tc.IsActive {
			active++
		}
	}
	render.JSON(w, r, map[string]any{
		"total_test_cases":       active,
		"total_test_runs":        len(b.runs),
		"status_counts":          counts,
		"success_rate":           rate,
		"average_execution_time": 1.5,
		"recent_runs":            recent,
	})
}

func (b *Backend) trends(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		days = 30
	}
	render.JSON(w, r, map[string]any{
		"period_days": days,
		"trends": []map[string]any{
			{"date": "2025-03-01", "total_runs": 4, "passed_runs": 3, "failed_runs": 1, "success_rate": 75.0},
		},
	})
}

func paginate[T any](items []T, q map[string][]string) []T {
	skip, _ := strconv.Atoi(first(q["skip"]))
	limit, err := strconv.Atoi(first(q["limit"]))
	if err != nil || limit <= 0 {
		limit = 100
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
