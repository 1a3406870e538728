package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/fjglira/uitestkit/internal/domain"
)

// MarkdownOptions configures which fenced blocks are steps and which HTML
// comments delimit test cases.
type MarkdownOptions struct {
	StepTags  []string
	TestStart []string
	TestEnd   []string
}

// MarkdownParser reads test cases from Markdown documents using goldmark.
//
// Each fenced block whose info string starts with a step tag is one step:
//
//	```ui-step type=fill selector="#name" timeout=5000 description="Enter name"
//	Contoso Ltd
//	```
//
// The block body is the step value. Steps between a test-start comment and
// a test-end comment form the named case; steps outside any marker pair form
// one case named after the first level-1 heading, or the file name.
type MarkdownParser struct {
	opts MarkdownOptions
	tags map[string]bool
}

// NewMarkdownParser creates a new MarkdownParser.
func NewMarkdownParser(opts MarkdownOptions) *MarkdownParser {
	tags := make(map[string]bool)
	for _, t := range opts.StepTags {
		tags[t] = true
	}
	return &MarkdownParser{opts: opts, tags: tags}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *MarkdownParser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Parse walks the Markdown AST and collects steps into test cases in
// document order.
func (p *MarkdownParser) Parse(filePath string, content []byte) ([]domain.TestCase, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	var (
		title    string
		cases    []domain.TestCase
		loose    domain.TestCase
		current  *domain.TestCase
		parseErr error
	)

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 && title == "" {
				title = extractText(node, content)
			}

		case *ast.HTMLBlock:
			comment := strings.TrimSpace(blockText(node, content))
			if name, ok := markerName(comment, p.opts.TestStart); ok {
				if current != nil {
					cases = append(cases, *current)
				}
				current = &domain.TestCase{Name: name}
			} else if _, ok := markerName(comment, p.opts.TestEnd); ok && current != nil {
				cases = append(cases, *current)
				current = nil
			}

		case *ast.FencedCodeBlock:
			var info string
			if node.Info != nil {
				info = string(node.Info.Segment.Value(content))
			}
			attrs := parseInfoString(info)
			if !p.tags[attrs["_tag"]] {
				return ast.WalkContinue, nil
			}
			line := 0
			if node.Info != nil {
				line = lineNumber(content, node.Info.Segment.Start)
			}
			step, err := stepFromBlock(attrs, strings.TrimRight(blockText(node, content), "\n"))
			if err != nil {
				parseErr = domain.NewErrorWithSuggestion("parse", filePath, line, err.Error(),
					`write attributes as key=value, for example type=click selector="#save" timeout=5000`, nil)
				return ast.WalkStop, nil
			}
			if current != nil {
				current.Steps = append(current.Steps, step)
			} else {
				loose.Steps = append(loose.Steps, step)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, domain.NewError("parse", filePath, 0, "failed to walk markdown AST", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if current != nil {
		cases = append(cases, *current)
	}

	if len(loose.Steps) > 0 {
		loose.Name = title
		if loose.Name == "" {
			base := filepath.Base(filePath)
			loose.Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		cases = append([]domain.TestCase{loose}, cases...)
	}
	return cases, nil
}

func stepFromBlock(attrs map[string]string, body string) (domain.Step, error) {
	step := domain.Step{
		Type:        domain.StepType(attrs["type"]),
		Description: attrs["description"],
		Selector:    attrs["selector"],
		Expected:    attrs["expected"],
		Value:       strings.TrimSpace(body),
	}
	if v, ok := attrs["value"]; ok && step.Value == "" {
		step.Value = v
	}
	if step.Type == "" {
		return step, fmt.Errorf("step block has no type attribute")
	}
	if t, ok := attrs["timeout"]; ok {
		ms, err := strconv.Atoi(t)
		if err != nil || ms < 0 {
			return step, fmt.Errorf("timeout must be a number of milliseconds (got %q)", t)
		}
		step.Timeout = ms
	}
	return step, nil
}

// markerName reports whether comment starts with one of markers and returns
// the text after it, without the closing "-->".
func markerName(comment string, markers []string) (string, bool) {
	for _, m := range markers {
		if strings.HasPrefix(comment, m) {
			name := strings.TrimPrefix(comment, m)
			name = strings.TrimSuffix(strings.TrimSpace(name), "-->")
			return strings.TrimSpace(name), true
		}
	}
	return "", false
}

// parseInfoString parses a fenced code block info string like:
//
//	ui-step type=click selector="[data-id=\"save\"]"
//
// Returns map with _tag for the first token and other key-value pairs.
// Double-quoted values accept backslash escapes.
func parseInfoString(info string) map[string]string {
	result := make(map[string]string)
	parts := splitInfoString(strings.TrimSpace(info))
	if len(parts) == 0 {
		return result
	}

	result["_tag"] = parts[0]
	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			continue
		}
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			if unq, err := strconv.Unquote(val); err == nil {
				val = unq
			} else {
				val = val[1 : len(val)-1]
			}
		} else if len(val) >= 2 && val[0] == '\'' && val[len(val)-1] == '\'' {
			val = val[1 : len(val)-1]
		}
		result[key] = val
	}
	return result
}

// splitInfoString splits the info string on blanks outside quotes.
func splitInfoString(s string) []string {
	var parts []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			current.WriteByte(c)
			if c == '\\' && quote == '"' && i+1 < len(s) {
				i++
				current.WriteByte(s[i])
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			current.WriteByte(c)
		case c == ' ' || c == '\t':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

// extractText gets the text content of a heading node.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

// lineNumber calculates the 1-based line number for a byte offset.
func lineNumber(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
