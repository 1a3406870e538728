package scanner_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/fjglira/uitestkit/internal/scanner"
)

var _ = Describe("Scanner", func() {
	casesDir := filepath.Join("..", "..", "testdata", "cases")
	definitions := []string{"*.yaml", "*.yml", "*.md"}

	bases := func(files []string) []string {
		var out []string
		for _, f := range files {
			out = append(out, filepath.Base(f))
		}
		return out
	}

	It("should find definition files recursively in sorted order", func() {
		s := scanner.New(scanner.Options{Include: definitions, Recursive: true})
		files, err := s.Scan(casesDir)
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"accounts.md", "login.yaml", "contacts.yml"}))
	})

	It("should respect exclude patterns", func() {
		s := scanner.New(scanner.Options{Include: definitions, Exclude: []string{"nested/**", "accounts.md"}, Recursive: true})
		files, err := s.Scan(casesDir)
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"login.yaml"}))
	})

	It("should handle non-recursive mode", func() {
		s := scanner.New(scanner.Options{Include: definitions})
		files, err := s.Scan(casesDir)
		Expect(err).ToNot(HaveOccurred())
		Expect(bases(files)).To(Equal([]string{"accounts.md", "login.yaml"}))
	})

	It("should return error for nonexistent directory", func() {
		_, err := scanner.New(scanner.Options{Include: definitions}).Scan("nonexistent_dir")
		Expect(err).To(HaveOccurred())
	})

	It("should merge roots and skip the ones that fail", func() {
		log, hook := test.NewNullLogger()
		s := scanner.New(scanner.Options{Include: definitions, Recursive: true})
		files := scanner.ScanAll(s, []string{casesDir, "nonexistent_dir", casesDir}, log)
		Expect(files).To(HaveLen(3))
		Expect(hook.LastEntry().Message).To(Equal("Failed to scan directory"))
	})
})
