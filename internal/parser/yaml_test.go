package parser_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/parser"
)

var _ = Describe("YAMLParser", func() {
	var p *parser.YAMLParser

	BeforeEach(func() {
		p = parser.NewYAMLParser()
	})

	It("should read a single case", func() {
		content, err := os.ReadFile(filepath.Join("..", "..", "testdata", "cases", "login.yaml"))
		Expect(err).ToNot(HaveOccurred())
		cases, err := p.Parse("login.yaml", content)
		Expect(err).ToNot(HaveOccurred())
		Expect(cases).To(HaveLen(1))
		Expect(cases[0].Name).To(Equal("Login with valid credentials"))
		Expect(cases[0].Tags).To(Equal("smoke,auth"))
		Expect(cases[0].Steps).To(HaveLen(5))
		Expect(cases[0].Steps[1].Selector).To(Equal(`input[type="email"]`))
		Expect(cases[0].Steps[1].Timeout).To(Equal(10000))
	})

	It("should read a tests list", func() {
		content, err := os.ReadFile(filepath.Join("..", "..", "testdata", "cases", "nested", "contacts.yml"))
		Expect(err).ToNot(HaveOccurred())
		cases, err := p.Parse("contacts.yml", content)
		Expect(err).ToNot(HaveOccurred())
		Expect(cases).To(HaveLen(2))
		Expect(cases[0].Steps[1].Type).To(Equal(domain.StepWaitForSelector))
	})

	It("should read a bare list and multiple documents", func() {
		content := []byte("- name: a\n  steps: []\n---\nname: b\nsteps:\n  - type: screenshot\n")
		cases, err := p.Parse("multi.yaml", content)
		Expect(err).ToNot(HaveOccurred())
		Expect(cases).To(HaveLen(2))
		Expect(cases[1].Name).To(Equal("b"))
	})

	It("should reject scalars", func() {
		_, err := p.Parse("scalar.yaml", []byte("just text\n"))
		Expect(err).To(MatchError(ContainSubstring("invalid test case definition")))
	})

	It("should read back what MarshalYAML writes", func() {
		id := 7
		in := []domain.TestCase{{ID: &id, Name: "Pulled", Steps: []domain.Step{{Type: domain.StepClick, Selector: "#a", Timeout: 5000}}}}
		out, err := parser.MarshalYAML(in)
		Expect(err).ToNot(HaveOccurred())
		cases, err := p.Parse("pulled.yaml", out)
		Expect(err).ToNot(HaveOccurred())
		Expect(cases).To(Equal(in))
	})
})

var _ = Describe("Registry", func() {
	It("should pick parsers by extension and stamp the source file", func() {
		r := parser.NewRegistry()
		r.Register(parser.NewYAMLParser())
		r.Register(parser.NewMarkdownParser(markdownOpts))

		p, err := r.ParserFor(".YML")
		Expect(err).ToNot(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&parser.YAMLParser{}))

		cases, err := parser.ParseFile(r, "x.md", []byte("# X\n\n```ui-step type=screenshot\n```\n"))
		Expect(err).ToNot(HaveOccurred())
		Expect(cases[0].SourceFile).To(Equal("x.md"))

		_, err = parser.ParseFile(r, "x.txt", nil)
		Expect(err).To(HaveOccurred())
	})
})
