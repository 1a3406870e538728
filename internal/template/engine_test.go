package template_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/uitestkit/internal/codegen"
	"github.com/fjglira/uitestkit/internal/domain"
	tmpl "github.com/fjglira/uitestkit/internal/template"
)

var _ = Describe("TemplateEngine", func() {
	var engine *tmpl.DefaultEngine

	BeforeEach(func() {
		var err error
		engine, err = tmpl.NewEngine("", "ginkgo_spec", "ginkgo_suite")
		Expect(err).ToNot(HaveOccurred())
	})

	specFile := func(steps ...domain.Step) tmpl.SpecFile {
		return tmpl.SpecFile{
			PackageName: "ui_generated",
			SourceFile:  "accounts.md",
			Describe:    "Account management",
			Cases:       []tmpl.Case{{Name: "Create account", Body: codegen.Generate("Create account", steps)}},
		}
	}

	It("should list the built-in templates", func() {
		Expect(engine.ListTemplates()).To(Equal([]string{"ginkgo_spec", "ginkgo_suite"}))
	})

	Describe("RenderSpec", func() {
		It("should render a formatted Ginkgo spec", func() {
			result, err := engine.RenderSpec(specFile(domain.Step{Type: domain.StepClick, Selector: "#new"}))
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(HavePrefix("// Code generated by uitestkit from accounts.md. DO NOT EDIT.\n"))
			Expect(result).To(ContainSubstring("package ui_generated"))
			Expect(result).To(ContainSubstring(`var _ = Describe("Account management", func() {`))
			Expect(result).To(ContainSubstring("\tIt(\"Create account\", func(ctx SpecContext) {"))
			Expect(result).ToNot(ContainSubstring("uitestkit/pkg/automation\""))
		})

		It("should import the automation package only when a step needs it", func() {
			result, err := engine.RenderSpec(specFile(domain.Step{Type: domain.StepVerify, Selector: "#ok", Expected: "visible"}))
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(ContainSubstring(`"github.com/fjglira/uitestkit/pkg/automation"`))
		})

		It("should render several cases into one Describe", func() {
			f := specFile()
			f.Cases = append(f.Cases, tmpl.Case{Name: "Second", Body: codegen.Generate("Second", nil)})
			result, err := engine.RenderSpec(f)
			Expect(err).ToNot(HaveOccurred())
			Expect(strings.Count(result, "Describe(")).To(Equal(1))
			Expect(strings.Count(result, "It(")).To(Equal(2))
		})

		It("should include build tag when configured", func() {
			f := specFile()
			f.BuildTag = "uitest"
			result, err := engine.RenderSpec(f)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(HavePrefix("//go:build uitest\n\n"))
		})

		It("should return unformatted source with an error when the output is not Go", func() {
			f := specFile()
			f.Cases = []tmpl.Case{{Name: "broken", Body: "It(\"x\", func( {"}}
			result, err := engine.RenderSpec(f)
			Expect(err).To(MatchError(ContainSubstring("go/format")))
			Expect(result).To(ContainSubstring("func( {"))
		})
	})

	Describe("RenderSuite", func() {
		It("should bootstrap a chromedp page", func() {
			result, err := engine.RenderSuite(tmpl.SuiteFile{
				PackageName:  "ui_generated",
				SuiteName:    "UI generated",
				Headless:     true,
				WindowWidth:  1920,
				WindowHeight: 1080,
				ArtifactDir:  "artifacts",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(ContainSubstring("func TestUIGenerated(t *testing.T)"))
			Expect(result).To(ContainSubstring("cdp.Launch(context.Background(), opts)"))
			Expect(result).To(ContainSubstring(`automation.WithArtifactDir("artifacts")`))
			Expect(result).ToNot(ContainSubstring("opts.ExecPath"))
		})
	})

	Describe("template directory", func() {
		It("should fall back to built-ins for a nonexistent directory", func() {
			e, err := tmpl.NewEngine("nonexistent_dir", "ginkgo_spec", "ginkgo_suite")
			Expect(err).ToNot(HaveOccurred())
			Expect(e.ListTemplates()).To(ContainElement("ginkgo_spec"))
		})

		It("should let a directory override and add templates", func() {
			dir := GinkgoT().TempDir()
			custom := "// custom\npackage {{.PackageName}}\n"
			Expect(os.WriteFile(filepath.Join(dir, "mine.tmpl"), []byte(custom), 0644)).To(Succeed())

			e, err := tmpl.NewEngine(dir, "mine", "ginkgo_suite")
			Expect(err).ToNot(HaveOccurred())
			result, err := e.RenderSpec(tmpl.SpecFile{PackageName: "p"})
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal("// custom\npackage p\n"))
		})

		It("should fail for an unknown template name", func() {
			_, err := tmpl.NewEngine("", "nope", "ginkgo_suite")
			Expect(err).To(MatchError(ContainSubstring(`template "nope" not found`)))
		})
	})

	It("should build identifiers from free text", func() {
		Expect(tmpl.Ident("ui generated")).To(Equal("UiGenerated"))
		Expect(tmpl.Ident("2fa flows")).To(Equal("X2faFlows"))
		Expect(tmpl.Ident("--")).To(Equal("Suite"))
	})
})
