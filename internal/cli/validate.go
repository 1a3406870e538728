package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjglira/uitestkit/internal/config"
	"github.com/fjglira/uitestkit/internal/steps"
	"github.com/fjglira/uitestkit/internal/ui"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [definition files...]",
		Short: "Validate the configuration and test case definitions",
		Long: `Without arguments, loads the configuration file and checks for missing
required fields and invalid values. With arguments, also parses every given
definition file and reports each invalid test case.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			out(cmd, "Configuration file %q is valid.\n", a.cfgFile)
			a.log.Debugf("Loaded config: %+v", cfg)

			var invalid []error
			for _, path := range args {
				cases, err := readDefinitions(cfg, path)
				if err != nil {
					return err
				}
				for _, tc := range cases {
					if err := steps.Check(tc); err != nil {
						invalid = append(invalid, fmt.Errorf("%s: %w", path, err))
						out(cmd, "%s\n", ui.Failure(fmt.Sprintf("%s: %v", path, err)))
						continue
					}
					out(cmd, "%s\n", ui.Success(fmt.Sprintf("%s: %s (%d steps)", path, tc.Name, len(tc.Steps))))
				}
			}
			if len(invalid) > 0 {
				return fmt.Errorf("%d invalid test case(s): %w", len(invalid), errors.Join(invalid...))
			}
			return nil
		},
	}
}
