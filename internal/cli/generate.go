package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjglira/uitestkit/internal/config"
	"github.com/fjglira/uitestkit/internal/generator"
	"github.com/fjglira/uitestkit/internal/scanner"
	tmpl "github.com/fjglira/uitestkit/internal/template"
	"github.com/fjglira/uitestkit/internal/ui"
)

func newGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate Ginkgo specs from test case definitions",
		Long: `Scans the input directories for YAML and Markdown test case definitions,
validates every test case and renders one Ginkgo spec file per definition file
plus a suite bootstrap into the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}
			// flags win over the file
			cfg.DryRun = cfg.DryRun || a.cfg.DryRun

			a.log.Info("Configuration loaded successfully")
			a.log.Infof("Scanning directories: %v", cfg.Input.Directories)
			a.log.Infof("Output directory: %s", cfg.Output.Directory)

			res, err := runGenerate(a, cfg)
			if err != nil {
				return err
			}

			for _, f := range res.Files {
				if cfg.DryRun {
					out(cmd, "would write %s\n", f)
				} else {
					out(cmd, "wrote %s\n", f)
				}
			}
			for _, e := range res.Invalid {
				out(cmd, "%s\n", ui.Failure(e.Error()))
			}
			out(cmd, "%s\n", ui.Success(fmt.Sprintf("%d test case(s) in %d file(s)", res.Cases, len(res.Files))))
			return nil
		},
	}
}

// runGenerate wires all components and runs the generator.
func runGenerate(a *app, cfg *config.Config) (*generator.Result, error) {
	recursive := true
	if cfg.Input.Recursive != nil {
		recursive = *cfg.Input.Recursive
	}
	s := scanner.New(scanner.Options{
		Include:   cfg.Input.Include,
		Exclude:   cfg.Input.Exclude,
		Recursive: recursive,
	})

	engine, err := tmpl.NewEngine(cfg.Templates.Directory, cfg.Templates.Spec, cfg.Templates.Suite)
	if err != nil {
		return nil, fmt.Errorf("failed to create template engine: %w", err)
	}

	gen := generator.NewGenerator(s, newRegistry(cfg), engine, a.log)
	return gen.Generate(cfg)
}
