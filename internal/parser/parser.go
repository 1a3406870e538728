package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Parser extracts test cases from a definition file.
type Parser interface {
	Parse(filePath string, content []byte) ([]domain.TestCase, error)
	SupportedExtensions() []string
}

// ParserRegistry maps file extensions to parsers.
type ParserRegistry interface {
	Register(parser Parser)
	ParserFor(extension string) (Parser, error)
}

// DefaultRegistry is a thread-safe parser registry.
type DefaultRegistry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates a new DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		parsers: make(map[string]Parser),
	}
}

// Register adds a parser to the registry for each of its supported extensions.
func (r *DefaultRegistry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.SupportedExtensions() {
		r.parsers[normalizeExt(ext)] = p
	}
}

// ParserFor returns the parser registered for the given file extension.
func (r *DefaultRegistry) ParserFor(extension string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.parsers[normalizeExt(extension)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no parser registered for extension %q", extension)
}

// ParseFile picks the parser for filePath and parses content with it.
// Every returned case has SourceFile set.
func ParseFile(r ParserRegistry, filePath string, content []byte) ([]domain.TestCase, error) {
	p, err := r.ParserFor(filepath.Ext(filePath))
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("parse", filePath, 0, err.Error(),
			"use a .yaml, .yml or .md definition file", nil)
	}
	cases, err := p.Parse(filePath, content)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		cases[i].SourceFile = filePath
	}
	return cases, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
