package parser

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/uitestkit/internal/domain"
)

// YAMLParser reads test cases written as YAML. A file holds a single case,
// a list of cases, or a mapping with a "tests" list.
type YAMLParser struct{}

// NewYAMLParser creates a new YAMLParser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *YAMLParser) SupportedExtensions() []string {
	return []string{".yaml", ".yml"}
}

type yamlDocument struct {
	Tests []domain.TestCase `yaml:"tests"`
}

// Parse decodes every YAML document in content.
func (p *YAMLParser) Parse(filePath string, content []byte) ([]domain.TestCase, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))

	var cases []domain.TestCase
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewError("parse", filePath, 0, "invalid YAML", err)
		}
		got, err := decodeCases(&node)
		if err != nil {
			return nil, domain.NewErrorWithSuggestion("parse", filePath, node.Line, "invalid test case definition",
				"a definition is a test case mapping, a list of them, or a mapping with a tests list", err)
		}
		cases = append(cases, got...)
	}
	return cases, nil
}

func decodeCases(doc *yaml.Node) ([]domain.TestCase, error) {
	root := doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}

	switch root.Kind {
	case yaml.SequenceNode:
		var cases []domain.TestCase
		if err := root.Decode(&cases); err != nil {
			return nil, err
		}
		return cases, nil
	case yaml.MappingNode:
		if hasKey(root, "tests") {
			var wrapped yamlDocument
			if err := root.Decode(&wrapped); err != nil {
				return nil, err
			}
			return wrapped.Tests, nil
		}
		var tc domain.TestCase
		if err := root.Decode(&tc); err != nil {
			return nil, err
		}
		return []domain.TestCase{tc}, nil
	}
	return nil, errors.New("expected a mapping or a list")
}

func hasKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return true
		}
	}
	return false
}

// MarshalYAML renders cases the way YAMLParser reads them back.
func MarshalYAML(cases []domain.TestCase) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	var v any = cases
	if len(cases) == 1 {
		v = cases[0]
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
