package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/uitestkit/internal/codegen"
	"github.com/fjglira/uitestkit/internal/config"
	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/parser"
	"github.com/fjglira/uitestkit/internal/scanner"
	"github.com/fjglira/uitestkit/internal/steps"
	tmpl "github.com/fjglira/uitestkit/internal/template"
)

// SuiteFileName is the bootstrap file written next to generated specs.
const SuiteFileName = "suite_test.go"

// Generator is the top-level orchestrator.
type Generator interface {
	Generate(cfg *config.Config) (*Result, error)
}

// Result summarizes one generation run.
type Result struct {
	Files   []string
	Cases   int
	Invalid []error
}

// DefaultGenerator implements Generator by wiring all components together.
type DefaultGenerator struct {
	scanner  scanner.Scanner
	registry parser.ParserRegistry
	engine   tmpl.TemplateEngine
	log      *logrus.Logger
}

// NewGenerator creates a new DefaultGenerator with all dependencies.
func NewGenerator(
	s scanner.Scanner,
	r parser.ParserRegistry,
	e tmpl.TemplateEngine,
	log *logrus.Logger,
) *DefaultGenerator {
	return &DefaultGenerator{
		scanner:  s,
		registry: r,
		engine:   e,
		log:      log,
	}
}

// Generate runs the full pipeline: scan → parse → validate → compile → render → write.
// Invalid test cases are skipped and reported in Result.Invalid.
func (g *DefaultGenerator) Generate(cfg *config.Config) (*Result, error) {
	res := &Result{}

	if cfg.Output.CleanBeforeGenerate && !cfg.DryRun {
		g.log.Debugf("Cleaning output directory: %s", cfg.Output.Directory)
		if err := cleanOutputDir(cfg.Output); err != nil {
			return nil, domain.NewErrorWithSuggestion("write", cfg.Output.Directory, 0,
				"failed to clean output directory",
				"check file permissions or set output.clean_before_generate to false in uitestkit.yaml",
				err)
		}
	}

	files := scanner.ScanAll(g.scanner, cfg.Input.Directories, g.log)
	if len(files) == 0 {
		g.log.Warn("No test case definition files found")
		return res, nil
	}
	g.log.Infof("Found %d definition file(s)", len(files))

	var specs []tmpl.SpecFile
	for _, filePath := range files {
		g.log.Debugf("Processing: %s", filePath)

		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, domain.NewErrorWithSuggestion("parse", filePath, 0,
				"failed to read file",
				"check that the file exists and has read permissions",
				err)
		}

		cases, err := parser.ParseFile(g.registry, filePath, content)
		if err != nil {
			return nil, err
		}

		spec := tmpl.SpecFile{
			PackageName: cfg.Output.PackageName,
			BuildTag:    cfg.Output.BuildTag,
			SourceFile:  filepath.ToSlash(filePath),
			Describe:    baseName(filePath),
		}
		for _, tc := range cases {
			if err := steps.Check(tc); err != nil {
				g.log.WithError(err).WithField("file", filePath).Warn("Skipping invalid test case")
				res.Invalid = append(res.Invalid, domain.NewError("validate", filePath, 0, "invalid test case", err))
				continue
			}
			spec.Cases = append(spec.Cases, tmpl.Case{Name: tc.Name, Body: codegen.Generate(tc.Name, tc.Steps)})
		}

		if len(spec.Cases) == 0 {
			g.log.Debugf("No valid test cases in %s", filePath)
			continue
		}
		res.Cases += len(spec.Cases)
		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		g.log.Warn("No test specs generated from definitions")
		return res, nil
	}
	g.log.Infof("Generated %d test case(s) in %d file(s)", res.Cases, len(specs))

	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
			return nil, domain.NewErrorWithSuggestion("write", cfg.Output.Directory, 0,
				"failed to create output directory",
				"check that the parent directory exists and has write permissions",
				err)
		}
	}

	used := make(map[string]int)
	for _, spec := range specs {
		rendered, err := g.engine.RenderSpec(spec)
		if err != nil {
			return nil, err
		}

		outputFile := buildOutputFilename(spec.SourceFile, cfg.Output, used)
		outputPath := filepath.Join(cfg.Output.Directory, outputFile)
		if err := g.write(cfg.DryRun, outputPath, rendered); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, outputPath)
	}

	suitePath := filepath.Join(cfg.Output.Directory, SuiteFileName)
	if _, err := os.Stat(suitePath); err == nil {
		g.log.Debugf("Keeping existing %s", suitePath)
	} else {
		suite, err := g.engine.RenderSuite(tmpl.SuiteFile{
			PackageName:  cfg.Output.PackageName,
			BuildTag:     cfg.Output.BuildTag,
			SuiteName:    cfg.Output.PackageName,
			Headless:     cfg.Browser.Headless,
			ExecPath:     cfg.Browser.ExecPath,
			WindowWidth:  cfg.Browser.WindowWidth,
			WindowHeight: cfg.Browser.WindowHeight,
			ArtifactDir:  cfg.Browser.ArtifactDir,
		})
		if err != nil {
			return nil, err
		}
		if err := g.write(cfg.DryRun, suitePath, suite); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, suitePath)
	}

	g.log.Info("Generation complete")
	return res, nil
}

func (g *DefaultGenerator) write(dryRun bool, path, content string) error {
	if dryRun {
		g.log.Infof("[DRY-RUN] Would write: %s", path)
		g.log.Debugf("[DRY-RUN] Content:\n%s", content)
		return nil
	}
	g.log.Infof("Writing: %s", path)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return domain.NewErrorWithSuggestion("write", path, 0,
			"failed to write output file",
			"check disk space and write permissions for the output directory",
			err)
	}
	return nil
}

// buildOutputFilename names the spec for a source file. Sources sharing a
// base name get a numeric suffix in scan order; the suite file name is never
// handed out.
func buildOutputFilename(source string, output config.OutputConfig, used map[string]int) string {
	name := sanitizeFileName(baseName(source))
	if name == "" {
		name = "cases"
	}
	file := output.FilePrefix + name + output.FileSuffix
	for n := 2; file == SuiteFileName || used[file] > 0; n++ {
		file = fmt.Sprintf("%s%s_%d%s", output.FilePrefix, name, n, output.FileSuffix)
	}
	used[file]++
	return file
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sanitizeFileName converts a name into a valid filename component.
// e.g. "Account Management-v2" → "account_management_v2"
func sanitizeFileName(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	result := b.String()
	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}
	return strings.Trim(result, "_")
}

// cleanOutputDir removes previously generated spec files. The suite file is kept.
func cleanOutputDir(output config.OutputConfig) error {
	info, err := os.Stat(output.Directory)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", output.Directory)
	}

	entries, err := os.ReadDir(output.Directory)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == SuiteFileName {
			continue
		}
		if strings.HasPrefix(name, output.FilePrefix) && strings.HasSuffix(name, output.FileSuffix) {
			if err := os.Remove(filepath.Join(output.Directory, name)); err != nil {
				return err
			}
		}
	}
	return nil
}
