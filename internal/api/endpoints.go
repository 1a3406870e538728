package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is a backend account.
type User struct {
	ID        int          `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	IsActive  bool         `json:"is_active"`
	CreatedAt *domain.Time `json:"created_at,omitempty"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Message is the body of acknowledgement responses.
type Message struct {
	Message string `json:"message"`
}

// ListTestsOptions filters ListTests. Zero values are omitted.
type ListTestsOptions struct {
	Skip   int
	Limit  int
	Search string
	Tags   string
}

// RunFilter filters ListRuns. Zero values are omitted.
type RunFilter struct {
	Skip       int
	Limit      int
	Status     domain.RunStatus
	TestCaseID int
}

// TestCaseUpdate is a partial update; nil fields are left untouched.
type TestCaseUpdate struct {
	Name           *string       `json:"name,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Steps          []domain.Step `json:"steps,omitempty"`
	ExpectedResult *string       `json:"expected_result,omitempty"`
	Tags           *string       `json:"tags,omitempty"`
	IsActive       *bool         `json:"is_active,omitempty"`
}

// UpdateFrom builds an update replacing every editable field with tc's.
func UpdateFrom(tc domain.TestCase) TestCaseUpdate {
	return TestCaseUpdate{
		Name:           &tc.Name,
		Description:    &tc.Description,
		Steps:          tc.Steps,
		ExpectedResult: &tc.ExpectedResult,
		Tags:           &tc.Tags,
	}
}

// RecentRun is the short run record of the dashboard.
type RecentRun struct {
	ID            int              `json:"id"`
	TestCaseID    int              `json:"test_case_id"`
	Status        domain.RunStatus `json:"status"`
	ExecutionTime float64          `json:"execution_time"`
	CreatedAt     *domain.Time     `json:"created_at,omitempty"`
}

// Dashboard aggregates the runs of the current user.
type Dashboard struct {
	TotalTestCases       int            `json:"total_test_cases"`
	TotalTestRuns        int            `json:"total_test_runs"`
	StatusCounts         map[string]int `json:"status_counts"`
	SuccessRate          float64        `json:"success_rate"`
	AverageExecutionTime float64        `json:"average_execution_time"`
	RecentRuns           []RecentRun    `json:"recent_runs"`
}

// TrendPoint is one day of run history.
type TrendPoint struct {
	Date        string  `json:"date"`
	TotalRuns   int     `json:"total_runs"`
	PassedRuns  int     `json:"passed_runs"`
	FailedRuns  int     `json:"failed_runs"`
	SuccessRate float64 `json:"success_rate"`
}

// Trends is the daily run history over PeriodDays.
type Trends struct {
	Trends     []TrendPoint `json:"trends"`
	PeriodDays int          `json:"period_days"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	in := map[string]string{"username": username, "password": password}
	var out Token
	if err := c.do(ctx, "POST", "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var out User
	if err := c.do(ctx, "POST", "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, "GET", "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "POST", "/auth/logout", nil, nil, nil)
}

func (c *Client) ListTests(ctx context.Context, opts ListTestsOptions) ([]domain.TestCase, error) {
	q := url.Values{}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Tags != "" {
		q.Set("tags", opts.Tags)
	}
	var out []domain.TestCase
	if err := c.do(ctx, "GET", "/tests/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTest(ctx context.Context, id int) (*domain.TestCase, error) {
	var out domain.TestCase
	if err := c.do(ctx, "GET", "/tests/"+strconv.Itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTest stores tc and returns it with its backend id.
func (c *Client) CreateTest(ctx context.Context, tc domain.TestCase) (*domain.TestCase, error) {
	in := tc
	in.ID = nil
	var out domain.TestCase
	if err := c.do(ctx, "POST", "/tests/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTest(ctx context.Context, id int, upd TestCaseUpdate) (*domain.TestCase, error) {
	var out domain.TestCase
	if err := c.do(ctx, "PUT", "/tests/"+strconv.Itoa(id), nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTest deactivates the test case; the backend keeps its run history.
func (c *Client) DeleteTest(ctx context.Context, id int) error {
	return c.do(ctx, "DELETE", "/tests/"+strconv.Itoa(id), nil, nil, &Message{})
}

// RunTest submits an asynchronous run and returns it in its initial status.
func (c *Client) RunTest(ctx context.Context, testCaseID int, environmentURL string) (*domain.TestRun, error) {
	in := domain.RunRequest{TestCaseID: testCaseID, EnvironmentURL: environmentURL}
	var out domain.TestRun
	if err := c.do(ctx, "POST", "/tests/"+strconv.Itoa(testCaseID)+"/run", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRun(ctx context.Context, runID int) (*domain.TestRun, error) {
	var out domain.TestRun
	if err := c.do(ctx, "GET", "/results/runs/"+strconv.Itoa(runID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListRuns(ctx context.Context, f RunFilter) ([]domain.TestRun, error) {
	q := url.Values{}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Status != "" {
		q.Set("status_filter", string(f.Status))
	}
	if f.TestCaseID > 0 {
		q.Set("test_case_id", strconv.Itoa(f.TestCaseID))
	}
	var out []domain.TestRun
	if err := c.do(ctx, "GET", "/results/runs", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTestRuns(ctx context.Context, testCaseID, limit int) ([]domain.TestRun, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.TestRun
	if err := c.do(ctx, "GET", "/tests/"+strconv.Itoa(testCaseID)+"/runs", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := c.do(ctx, "GET", "/results/dashboard", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trends returns daily run counts for the last days days.
func (c *Client) Trends(ctx context.Context, days int) (*Trends, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out Trends
	if err := c.do(ctx, "GET", "/results/trends", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
