package parser_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/parser"
)

var markdownOpts = parser.MarkdownOptions{
	StepTags:  []string{"ui-step"},
	TestStart: []string{"<!-- test-start:"},
	TestEnd:   []string{"<!-- test-end"},
}

var _ = Describe("MarkdownParser", func() {
	var p *parser.MarkdownParser

	BeforeEach(func() {
		p = parser.NewMarkdownParser(markdownOpts)
	})

	It("should support .md and .markdown", func() {
		Expect(p.SupportedExtensions()).To(ContainElements(".md", ".markdown"))
	})

	Describe("Parse accounts.md", func() {
		var cases []domain.TestCase

		BeforeEach(func() {
			content, err := os.ReadFile(filepath.Join("..", "..", "testdata", "cases", "accounts.md"))
			Expect(err).ToNot(HaveOccurred())
			cases, err = p.Parse("accounts.md", content)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should produce the heading case first, then marked cases in order", func() {
			Expect(cases).To(HaveLen(3))
			Expect(cases[0].Name).To(Equal("Account management"))
			Expect(cases[1].Name).To(Equal("Create account"))
			Expect(cases[2].Name).To(Equal("Hide notification"))
		})

		It("should ignore untagged code blocks", func() {
			Expect(cases[0].Steps).To(HaveLen(1))
			Expect(cases[0].Steps[0].Value).To(HavePrefix("https://contoso.crm.dynamics.com/"))
		})

		It("should read attributes with escaped quotes", func() {
			steps := cases[1].Steps
			Expect(steps).To(HaveLen(3))
			Expect(steps[0]).To(Equal(domain.Step{
				Type:        domain.StepClick,
				Selector:    `[data-id="new-record-button"]`,
				Description: "New account",
			}))
			Expect(steps[1].Value).To(Equal("Contoso Ltd"))
			Expect(steps[1].Timeout).To(Equal(5000))
			Expect(steps[2].Expected).To(Equal("Contoso Ltd"))
		})

		It("should take unquoted attribute values and block bodies", func() {
			steps := cases[2].Steps
			Expect(steps[0].Type).To(Equal(domain.StepWait))
			Expect(steps[0].Value).To(Equal("1500"))
			Expect(steps[1].Expected).To(Equal("hidden"))
		})
	})

	It("should name loose steps after the file when there is no heading", func() {
		content := []byte("```ui-step type=screenshot\n```\n")
		cases, err := p.Parse(filepath.Join("flows", "smoke.md"), content)
		Expect(err).ToNot(HaveOccurred())
		Expect(cases).To(HaveLen(1))
		Expect(cases[0].Name).To(Equal("smoke"))
	})

	It("should close a case left open at the end of the file", func() {
		content := []byte("<!-- test-start: Open -->\n\n```ui-step type=screenshot\n```\n")
		cases, err := p.Parse("open.md", content)
		Expect(err).ToNot(HaveOccurred())
		Expect(cases).To(HaveLen(1))
		Expect(cases[0].Name).To(Equal("Open"))
	})

	It("should report the line of a bad attribute", func() {
		content := []byte("# T\n\n```ui-step type=click timeout=soon\n```\n")
		_, err := p.Parse("bad.md", content)
		var perr *domain.Error
		Expect(err).To(BeAssignableToTypeOf(perr))
		Expect(err.(*domain.Error).LineNumber).To(Equal(3))
		Expect(err.Error()).To(ContainSubstring("timeout"))
	})

	It("should reject a step block without a type", func() {
		_, err := p.Parse("bad.md", []byte("```ui-step selector=#a\n```\n"))
		Expect(err).To(MatchError(ContainSubstring("no type")))
	})
})
