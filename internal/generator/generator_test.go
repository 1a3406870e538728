package generator_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/uitestkit/internal/config"
	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/generator"
	"github.com/fjglira/uitestkit/internal/parser"
	"github.com/fjglira/uitestkit/internal/scanner"
	tmpl "github.com/fjglira/uitestkit/internal/template"
)

var _ = Describe("Generator", func() {
	var (
		gen       *generator.DefaultGenerator
		cfg       *config.Config
		outputDir string
	)

	BeforeEach(func() {
		log := logrus.New()
		log.SetOutput(io.Discard)
		log.SetLevel(logrus.DebugLevel)

		outputDir = GinkgoT().TempDir()

		cfg = config.DefaultConfig()
		cfg.Input.Directories = []string{filepath.Join("..", "..", "testdata", "cases")}
		cfg.Output.Directory = outputDir
		cfg.Output.BuildTag = ""

		s := scanner.New(scanner.Options{Include: cfg.Input.Include, Exclude: cfg.Input.Exclude, Recursive: *cfg.Input.Recursive})
		registry := parser.NewRegistry()
		registry.Register(parser.NewYAMLParser())
		registry.Register(parser.NewMarkdownParser(parser.MarkdownOptions{
			StepTags:  cfg.Markers.StepTags,
			TestStart: cfg.Markers.TestStart,
			TestEnd:   cfg.Markers.TestEnd,
		}))
		engine, err := tmpl.NewEngine(cfg.Templates.Directory, cfg.Templates.Spec, cfg.Templates.Suite)
		Expect(err).ToNot(HaveOccurred())

		gen = generator.NewGenerator(s, registry, engine, log)
	})

	It("should write one spec per definition file plus the suite", func() {
		res, err := gen.Generate(cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Files).To(ConsistOf(
			filepath.Join(outputDir, "generated_accounts_test.go"),
			filepath.Join(outputDir, "generated_login_test.go"),
			filepath.Join(outputDir, "generated_contacts_test.go"),
			filepath.Join(outputDir, "suite_test.go"),
		))
		Expect(res.Cases).To(Equal(5))

		content, err := os.ReadFile(filepath.Join(outputDir, "generated_accounts_test.go"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(ContainSubstring(`It("Create account"`))
		Expect(string(content)).To(ContainSubstring(`runner.VerifyText(ctx, "h1[data-id=\"header_title\"]", "Contoso Ltd", 30000*time.Millisecond)`))
	})

	It("should skip invalid cases and report them", func() {
		res, err := gen.Generate(cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Invalid).To(HaveLen(1))

		var verr *domain.ValidationError
		Expect(errors.As(res.Invalid[0], &verr)).To(BeTrue())
		Expect(verr.TestName).To(Equal("Broken contact case"))
	})

	It("should never overwrite an existing suite file", func() {
		suite := filepath.Join(outputDir, "suite_test.go")
		Expect(os.WriteFile(suite, []byte("// hand edited\n"), 0644)).To(Succeed())

		res, err := gen.Generate(cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Files).ToNot(ContainElement(suite))

		content, err := os.ReadFile(suite)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("// hand edited\n"))
	})

	It("should remove stale generated files but keep others", func() {
		stale := filepath.Join(outputDir, "generated_removed_test.go")
		keep := filepath.Join(outputDir, "helpers_test.go")
		Expect(os.WriteFile(stale, []byte("package x\n"), 0644)).To(Succeed())
		Expect(os.WriteFile(keep, []byte("package x\n"), 0644)).To(Succeed())

		_, err := gen.Generate(cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(stale).ToNot(BeAnExistingFile())
		Expect(keep).To(BeAnExistingFile())
	})

	It("should not give a spec the suite file name", func() {
		defs := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(defs, "suite.yaml"), []byte(
			"name: Suite smoke\nsteps:\n  - type: navigate\n    value: https://crm.example.com\n"), 0644)).To(Succeed())
		cfg.Input.Directories = []string{defs}
		cfg.Output.FilePrefix = ""

		res, err := gen.Generate(cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Files).To(ConsistOf(
			filepath.Join(outputDir, "suite_2_test.go"),
			filepath.Join(outputDir, "suite_test.go"),
		))

		content, err := os.ReadFile(filepath.Join(outputDir, "suite_test.go"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("RunSpecs("))
		content, err = os.ReadFile(filepath.Join(outputDir, "suite_2_test.go"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(ContainSubstring(`It("Suite smoke"`))
	})

	It("should not write anything in dry-run mode", func() {
		cfg.DryRun = true
		cfg.Output.Directory = filepath.Join(outputDir, "not-created")
		res, err := gen.Generate(cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Files).To(HaveLen(4))
		Expect(cfg.Output.Directory).ToNot(BeADirectory())
	})

	It("should do nothing when there are no definitions", func() {
		cfg.Input.Directories = []string{GinkgoT().TempDir()}
		res, err := gen.Generate(cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Files).To(BeEmpty())
	})
})
