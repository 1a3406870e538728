// Package codegen compiles test case steps into Ginkgo spec source that drives
// the automation runtime.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Generate returns the It block for one test case. It never fails: step types
// it does not know compile to a diagnostic print.
func Generate(testName string, steps []domain.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "It(%s, func(ctx SpecContext) {\n", strconv.Quote(testName))
	b.WriteString("\trunner := newRunner()\n")
	b.WriteString("\terr := func() error {\n")
	for i, step := range steps {
		b.WriteString(indent(CompileStep(step, i), "\t\t"))
		b.WriteString("\n")
	}
	b.WriteString("\t\treturn nil\n")
	b.WriteString("\t}()\n")
	b.WriteString("\tif err != nil {\n")
	b.WriteString("\t\t_ = runner.Screenshot(ctx, fmt.Sprintf(\"failure-%d.png\", time.Now().UnixMilli()))\n")
	b.WriteString("\t}\n")
	b.WriteString("\tExpect(err).ToNot(HaveOccurred())\n")
	b.WriteString("})\n")
	return b.String()
}

// CompileStep returns the statements for the step at index (0-based).
func CompileStep(step domain.Step, index int) string {
	comment := fmt.Sprintf("// Step %d: %s", index+1, oneLine(step.Label()))
	timeout := millis(step.TimeoutOr(domain.GeneratorDefaultTimeout))
	sel := strconv.Quote(step.Selector)

	var call string
	switch step.Type {
	case domain.StepNavigate:
		call = fmt.Sprintf("runner.Navigate(ctx, %s)", strconv.Quote(step.Value))
	case domain.StepClick:
		call = fmt.Sprintf("runner.Click(ctx, %s, %s)", sel, timeout)
	case domain.StepFill:
		call = fmt.Sprintf("runner.Fill(ctx, %s, %s, %s)", sel, strconv.Quote(step.Value), timeout)
	case domain.StepVerify:
		switch step.Expected {
		case domain.ExpectVisible, "":
			call = fmt.Sprintf("runner.Verify(ctx, %s, automation.StateVisible, nil, %s)", sel, timeout)
		case domain.ExpectHidden:
			call = fmt.Sprintf("runner.Verify(ctx, %s, automation.StateHidden, nil, %s)", sel, timeout)
		default:
			call = fmt.Sprintf("runner.VerifyText(ctx, %s, %s, %s)", sel, strconv.Quote(step.Expected), timeout)
		}
	case domain.StepWait:
		call = fmt.Sprintf("runner.Wait(ctx, %s)", millis(WaitMillis(step.Value)))
	case domain.StepWaitForSelector:
		call = fmt.Sprintf("runner.WaitForElement(ctx, %s, %s)", sel, timeout)
	case domain.StepScreenshot:
		call = fmt.Sprintf("runner.Screenshot(ctx, %s)", strconv.Quote(ScreenshotName(index)))
	default:
		return fmt.Sprintf("%s\nGinkgoWriter.Printf(\"unknown step type: %%s\\n\", %s)", comment, strconv.Quote(string(step.Type)))
	}
	return fmt.Sprintf("%s\nif err := %s; err != nil {\n\treturn err\n}", comment, call)
}

// ScreenshotName is the file a screenshot step at index writes.
func ScreenshotName(index int) string {
	return fmt.Sprintf("screenshot-step-%d.png", index+1)
}

// WaitMillis parses a wait step value. Anything that is not a positive
// integer falls back to the default wait.
func WaitMillis(value string) int {
	ms, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || ms <= 0 {
		return domain.DefaultWaitMillis
	}
	return ms
}

func millis(ms int) string {
	return fmt.Sprintf("%d*time.Millisecond", ms)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func indent(s, pad string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
