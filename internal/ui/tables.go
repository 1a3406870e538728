package ui

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/fjglira/uitestkit/internal/api"
	"github.com/fjglira/uitestkit/internal/builder"
	"github.com/fjglira/uitestkit/internal/coordinator"
	"github.com/fjglira/uitestkit/internal/domain"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(true)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// TestsTable lists test cases.
func TestsTable(w io.Writer, cases []domain.TestCase) {
	table := newTable(w, "ID", "Name", "Steps", "Tags", "Expected")
	for _, tc := range cases {
		table.Append([]string{
			strconv.Itoa(tc.IDValue()),
			tc.Name,
			strconv.Itoa(len(tc.Steps)),
			tc.Tags,
			tc.ExpectedResult,
		})
	}
	table.Render()
}

// StepsTable lists the steps of a test case.
func StepsTable(w io.Writer, rows []builder.Row) {
	table := newTable(w, "#", "Type", "Step")
	for _, row := range rows {
		table.Append([]string{strconv.Itoa(row.Number), string(row.Step.Type), row.Summary})
	}
	table.Render()
}

// RunsTable lists test runs, newest first as returned by the backend.
func RunsTable(w io.Writer, runs []domain.TestRun) {
	table := newTable(w, "Run", "Test", "Status", "Time", "Created", "Error")
	for _, run := range runs {
		table.Append([]string{
			strconv.Itoa(run.ID),
			strconv.Itoa(run.TestCaseID),
			string(run.Status),
			Seconds(run.ExecutionTime),
			timestamp(run.CreatedAt),
			truncate(run.ErrorMessage, 60),
		})
	}
	table.Render()
}

// ResultsTable lists the results of an execution session.
func ResultsTable(w io.Writer, results []coordinator.Result) {
	table := newTable(w, "Test", "Run", "Status", "Time", "Error")
	for _, r := range results {
		run := "-"
		if r.RunID > 0 {
			run = strconv.Itoa(r.RunID)
		}
		table.Append([]string{r.TestName, run, string(r.Status), Seconds(r.ExecutionTime), truncate(r.ErrorMessage, 60)})
	}
	table.Render()
}

// DashboardTable prints the aggregate counters followed by the recent runs.
func DashboardTable(w io.Writer, d *api.Dashboard) {
	table := newTable(w, "Metric", "Value")
	table.Append([]string{"Test cases", strconv.Itoa(d.TotalTestCases)})
	table.Append([]string{"Test runs", strconv.Itoa(d.TotalTestRuns)})
	table.Append([]string{"Success rate", fmt.Sprintf("%.2f%%", d.SuccessRate)})
	table.Append([]string{"Average time", Seconds(d.AverageExecutionTime)})

	statuses := make([]string, 0, len(d.StatusCounts))
	for s := range d.StatusCounts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		table.Append([]string{"Runs " + s, strconv.Itoa(d.StatusCounts[s])})
	}
	table.Render()

	if len(d.RecentRuns) == 0 {
		return
	}
	recent := newTable(w, "Run", "Test", "Status", "Time", "Created")
	for _, run := range d.RecentRuns {
		recent.Append([]string{
			strconv.Itoa(run.ID),
			strconv.Itoa(run.TestCaseID),
			string(run.Status),
			Seconds(run.ExecutionTime),
			timestamp(run.CreatedAt),
		})
	}
	recent.Render()
}

// TrendsTable prints one row per day.
func TrendsTable(w io.Writer, t *api.Trends) {
	table := newTable(w, "Date", "Runs", "Passed", "Failed", "Success")
	for _, p := range t.Trends {
		table.Append([]string{
			p.Date,
			strconv.Itoa(p.TotalRuns),
			strconv.Itoa(p.PassedRuns),
			strconv.Itoa(p.FailedRuns),
			fmt.Sprintf("%.2f%%", p.SuccessRate),
		})
	}
	table.SetFooter([]string{"", "", "", "Days", strconv.Itoa(t.PeriodDays)})
	table.Render()
}

func timestamp(t *domain.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
