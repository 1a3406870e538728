package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fjglira/uitestkit/internal/config"
	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/parser"
)

func newRegistry(cfg *config.Config) *parser.DefaultRegistry {
	registry := parser.NewRegistry()
	registry.Register(parser.NewYAMLParser())
	registry.Register(parser.NewMarkdownParser(parser.MarkdownOptions{
		StepTags:  cfg.Markers.StepTags,
		TestStart: cfg.Markers.TestStart,
		TestEnd:   cfg.Markers.TestEnd,
	}))
	return registry
}

// readDefinitions parses every test case of a YAML or Markdown definition file.
func readDefinitions(cfg *config.Config, path string) ([]domain.TestCase, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("parse", path, 0,
			"failed to read file",
			"check that the file exists and has read permissions",
			err)
	}
	return parser.ParseFile(newRegistry(cfg), path, content)
}

// pickCase returns the index of the case called name, or 0 when name is empty
// and the file holds exactly one case.
func pickCase(cases []domain.TestCase, name, path string) (int, error) {
	if len(cases) == 0 {
		return -1, fmt.Errorf("%s: no test cases found", path)
	}
	if name == "" {
		if len(cases) > 1 {
			names := make([]string, len(cases))
			for i, tc := range cases {
				names[i] = tc.Name
			}
			return -1, fmt.Errorf("%s holds %d test cases, pick one with --case (%s)", path, len(cases), strings.Join(names, ", "))
		}
		return 0, nil
	}
	for i, tc := range cases {
		if tc.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s: no test case named %q", path, name)
}

// writeDefinitions rewrites path as a YAML definition file.
func writeDefinitions(path string, cases []domain.TestCase) error {
	data, err := parser.MarshalYAML(cases)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return domain.NewError("write", path, 0, "failed to write definitions", err)
	}
	return nil
}
