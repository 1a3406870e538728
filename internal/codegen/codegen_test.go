package codegen_test

import (
	"go/parser"
	"go/token"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/uitestkit/internal/codegen"
	"github.com/fjglira/uitestkit/internal/domain"
)

// parses wraps an It block in a function so go/parser can check it.
func parses(src string) error {
	file := "package p\nfunc _() {\n" + src + "\n}\n"
	_, err := parser.ParseFile(token.NewFileSet(), "gen.go", file, 0)
	return err
}

var _ = Describe("CompileStep", func() {
	DescribeTable("one rule per step type",
		func(step domain.Step, index int, want string) {
			Expect(codegen.CompileStep(step, index)).To(ContainSubstring(want))
		},
		Entry("navigate", domain.Step{Type: domain.StepNavigate, Value: "https://crm.example.com"}, 0,
			`runner.Navigate(ctx, "https://crm.example.com")`),
		Entry("click with default timeout", domain.Step{Type: domain.StepClick, Selector: "#save"}, 0,
			`runner.Click(ctx, "#save", 30000*time.Millisecond)`),
		Entry("click with step timeout", domain.Step{Type: domain.StepClick, Selector: "#save", Timeout: 5000}, 0,
			`runner.Click(ctx, "#save", 5000*time.Millisecond)`),
		Entry("fill", domain.Step{Type: domain.StepFill, Selector: "#name", Value: "Contoso"}, 0,
			`runner.Fill(ctx, "#name", "Contoso", 30000*time.Millisecond)`),
		Entry("verify visible", domain.Step{Type: domain.StepVerify, Selector: "#ok", Expected: "visible"}, 0,
			`runner.Verify(ctx, "#ok", automation.StateVisible, nil, 30000*time.Millisecond)`),
		Entry("verify hidden", domain.Step{Type: domain.StepVerify, Selector: "#ok", Expected: "hidden"}, 0,
			`runner.Verify(ctx, "#ok", automation.StateHidden, nil, 30000*time.Millisecond)`),
		Entry("verify without expected checks visibility", domain.Step{Type: domain.StepVerify, Selector: "#status"}, 0,
			`runner.Verify(ctx, "#status", automation.StateVisible, nil, 30000*time.Millisecond)`),
		Entry("verify text", domain.Step{Type: domain.StepVerify, Selector: "#msg", Expected: "Saved"}, 0,
			`runner.VerifyText(ctx, "#msg", "Saved", 30000*time.Millisecond)`),
		Entry("wait", domain.Step{Type: domain.StepWait, Value: "2500"}, 0,
			`runner.Wait(ctx, 2500*time.Millisecond)`),
		Entry("wait with garbage value", domain.Step{Type: domain.StepWait, Value: "soon"}, 0,
			`runner.Wait(ctx, 1000*time.Millisecond)`),
		Entry("wait for selector", domain.Step{Type: domain.StepWaitForSelector, Selector: ".grid"}, 0,
			`runner.WaitForElement(ctx, ".grid", 30000*time.Millisecond)`),
		Entry("screenshot uses the 1-based position", domain.Step{Type: domain.StepScreenshot}, 3,
			`runner.Screenshot(ctx, "screenshot-step-4.png")`),
		Entry("unknown type", domain.Step{Type: "hover"}, 0,
			`GinkgoWriter.Printf("unknown step type: %s\n", "hover")`),
	)

	It("should label the step with its description or type", func() {
		Expect(codegen.CompileStep(domain.Step{Type: domain.StepScreenshot, Description: "Capture\nform"}, 1)).
			To(HavePrefix("// Step 2: Capture form\n"))
		Expect(codegen.CompileStep(domain.Step{Type: domain.StepScreenshot}, 0)).
			To(HavePrefix("// Step 1: screenshot\n"))
	})

	It("should embed hostile literals as valid Go strings", func() {
		step := domain.Step{Type: domain.StepFill, Selector: `input[name="q"]`, Value: "a\"b`c\\d\n"}
		Expect(parses(codegen.CompileStep(step, 0))).To(Succeed())
	})
})

var _ = Describe("Generate", func() {
	It("should wrap steps with the failure screenshot and rethrow", func() {
		out := codegen.Generate("Create account", []domain.Step{
			{Type: domain.StepNavigate, Value: "https://crm.example.com"},
			{Type: domain.StepClick, Selector: "#new"},
		})
		Expect(out).To(HavePrefix(`It("Create account", func(ctx SpecContext) {`))
		Expect(out).To(ContainSubstring(`fmt.Sprintf("failure-%d.png", time.Now().UnixMilli())`))
		Expect(out).To(ContainSubstring("Expect(err).ToNot(HaveOccurred())"))
		Expect(strings.Index(out, "// Step 1")).To(BeNumerically("<", strings.Index(out, "// Step 2")))
		Expect(parses(out)).To(Succeed())
	})

	It("should produce valid code with no steps and unknown steps", func() {
		Expect(parses(codegen.Generate("", nil))).To(Succeed())
		Expect(parses(codegen.Generate(`quote " name`, []domain.Step{{Type: "drag"}, {}}))).To(Succeed())
	})
})
