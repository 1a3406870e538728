package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fjglira/uitestkit/internal/coordinator"
	"github.com/fjglira/uitestkit/internal/domain"
)

const barWidth = 20

// ProgressRenderer prints session events as they happen.
type ProgressRenderer struct {
	mu    sync.Mutex
	w     io.Writer
	total int
}

var _ coordinator.Listener = (*ProgressRenderer)(nil)

// NewProgressRenderer writes to w.
func NewProgressRenderer(w io.Writer) *ProgressRenderer {
	return &ProgressRenderer{w: w}
}

func (r *ProgressRenderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, format, args...)
}

func (r *ProgressRenderer) SessionStarted(id string, tests []domain.TestCase, environmentURL string) {
	r.mu.Lock()
	r.total = len(tests)
	r.mu.Unlock()

	target := environmentURL
	if target == "" {
		target = "the stored URLs"
	}
	r.printf("\n%s Running %d tests against %s %s\n", cyan.Render("●"), len(tests), target, gray.Render("("+shortID(id)+")"))
}

func (r *ProgressRenderer) TestStarted(index int, tc domain.TestCase) {
	r.mu.Lock()
	total := r.total
	r.mu.Unlock()
	r.printf("  %s %s\n", gray.Render(fmt.Sprintf("[%d/%d]", index+1, total)), tc.Name)
}

func (r *ProgressRenderer) ResultRecorded(res coordinator.Result, p coordinator.Progress, t coordinator.Tally) {
	style := statusStyle(res.Status)
	line := fmt.Sprintf("  └─ %s %s %s",
		style.Render(statusIcon(res.Status)+" "+strings.ToUpper(string(res.Status))),
		res.TestName,
		gray.Render(Seconds(res.ExecutionTime)))
	if res.ErrorMessage != "" {
		line += "\n     " + red.Render(res.ErrorMessage)
	}
	r.printf("%s\n  %s %d/%d  %s\n", line, Bar(p.Completed, p.Total, barWidth), p.Completed, p.Total, TallyLine(t))
}

func (r *ProgressRenderer) SessionCompleted(s coordinator.Summary) {
	msg := "Execution completed: " + s.String()
	if s.Stopped {
		msg = "Execution stopped: " + s.String()
	}
	style := green
	if s.Passed != s.Total || s.Stopped {
		style = yellow
	}
	r.printf("\n%s %s\n\n", style.Render(msg), gray.Render(Elapsed(s.Elapsed)))
}

// Tick prints the elapsed time of a running session.
func (r *ProgressRenderer) Tick(info coordinator.SessionInfo) {
	r.printf("  %s %s\n", gray.Render("elapsed"), Elapsed(info.Elapsed()))
}

// Bar renders a fixed-width progress bar.
func Bar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	return "[" + green.Render(strings.Repeat("#", filled)) + gray.Render(strings.Repeat(".", width-filled)) + "]"
}

// TallyLine renders the per-status counters.
func TallyLine(t coordinator.Tally) string {
	return strings.Join([]string{
		green.Render(fmt.Sprintf("passed %d", t.Passed)),
		red.Render(fmt.Sprintf("failed %d", t.Failed)),
		yellow.Render(fmt.Sprintf("error %d", t.Error)),
		gray.Render(fmt.Sprintf("pending %d", t.Pending)),
	}, "  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
