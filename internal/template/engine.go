package template

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/fjglira/uitestkit/internal/domain"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Case is one rendered It block.
type Case struct {
	Name string
	Body string
}

// SpecFile is the data of a generated spec file.
type SpecFile struct {
	PackageName string
	BuildTag    string
	SourceFile  string
	Describe    string
	Cases       []Case
}

// SuiteFile is the data of the generated suite bootstrap.
type SuiteFile struct {
	PackageName  string
	BuildTag     string
	SuiteName    string
	Headless     bool
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	ArtifactDir  string
}

// TemplateEngine renders generated Go source.
type TemplateEngine interface {
	RenderSpec(f SpecFile) (string, error)
	RenderSuite(s SuiteFile) (string, error)
	ListTemplates() []string
}

// DefaultEngine implements TemplateEngine.
type DefaultEngine struct {
	templates map[string]*template.Template
	specName  string
	suiteName string
}

// NewEngine loads the built-in templates, then any .tmpl files in templateDir,
// which override built-ins of the same name. A missing or empty templateDir
// leaves only the built-ins.
func NewEngine(templateDir, specName, suiteName string) (*DefaultEngine, error) {
	e := &DefaultEngine{
		templates: make(map[string]*template.Template),
		specName:  specName,
		suiteName: suiteName,
	}

	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		return nil, domain.NewError("template", "", 0, "failed to open built-in templates", err)
	}
	if err := e.load(sub, "built-in"); err != nil {
		return nil, err
	}

	if templateDir != "" {
		if info, err := os.Stat(templateDir); err == nil && info.IsDir() {
			if err := e.load(os.DirFS(templateDir), templateDir); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range []string{specName, suiteName} {
		if _, ok := e.templates[name]; !ok {
			return nil, domain.NewErrorWithSuggestion("template", templateDir, 0,
				fmt.Sprintf("template %q not found (available: %s)", name, strings.Join(e.ListTemplates(), ", ")),
				"set templates.spec and templates.suite to names of .tmpl files", nil)
		}
	}
	return e, nil
}

func (e *DefaultEngine) load(fsys fs.FS, origin string) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return domain.NewError("template", origin, 0, "failed to read template directory", err)
	}

	funcMap := CustomFuncMap()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}
		path := filepath.Join(origin, entry.Name())
		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return domain.NewError("template", path, 0, "failed to read template file", err)
		}

		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return domain.NewError("template", path, 0, "failed to parse template", err)
		}
		e.templates[name] = tmpl
	}
	return nil
}

type specData struct {
	SpecFile
	NeedsAutomation bool
}

// RenderSpec renders one spec file.
func (e *DefaultEngine) RenderSpec(f SpecFile) (string, error) {
	needsAutomation := false
	for _, c := range f.Cases {
		if strings.Contains(c.Body, "automation.") {
			needsAutomation = true
			break
		}
	}
	return e.render(e.specName, f.SourceFile, specData{SpecFile: f, NeedsAutomation: needsAutomation})
}

// RenderSuite renders the suite bootstrap file.
func (e *DefaultEngine) RenderSuite(s SuiteFile) (string, error) {
	return e.render(e.suiteName, "", s)
}

// render executes a template and formats the result with go/format. When
// formatting fails the unformatted source is returned with the error.
func (e *DefaultEngine) render(name, source string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.templates[name].Execute(&buf, data); err != nil {
		return "", domain.NewError("template", source, 0, fmt.Sprintf("failed to execute template %q", name), err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.String(), domain.NewError("template", source, 0,
			"generated code failed go/format validation", err)
	}
	return string(formatted), nil
}

// ListTemplates returns the names of all loaded templates, sorted.
func (e *DefaultEngine) ListTemplates() []string {
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
