package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/executor"
	"github.com/fjglira/uitestkit/internal/ui"
	"github.com/fjglira/uitestkit/pkg/automation"
	"github.com/fjglira/uitestkit/pkg/automation/cdp"
)

func newExecCmd(a *app) *cobra.Command {
	var name, env string
	cmd := &cobra.Command{
		Use:   "exec <definition file>",
		Short: "Run test cases locally in Chrome",
		Long: `Parses a YAML or Markdown definition file and runs its test cases one after
another in a local Chrome instance. Screenshots are written to the browser
artifact directory. The command fails unless every test case passed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := readDefinitions(a.cfg, args[0])
			if err != nil {
				return err
			}
			if name != "" {
				i, err := pickCase(cases, name, args[0])
				if err != nil {
					return err
				}
				cases = cases[i : i+1]
			}
			if len(cases) == 0 {
				return fmt.Errorf("%s: no test cases found", args[0])
			}
			if env == "" {
				env = a.cfg.Runner.EnvironmentURL
			}

			if a.cfg.DryRun {
				for _, tc := range cases {
					tc = executor.InjectEnvironment(tc, env)
					out(cmd, "%s\n", tc.Name)
					ui.StepsTable(cmd.OutOrStdout(), builderRows(tc))
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b := a.cfg.Browser
			page, closeBrowser, err := a.launch(ctx, cdp.Options{
				Headless:     b.Headless,
				ExecPath:     b.ExecPath,
				WindowWidth:  b.WindowWidth,
				WindowHeight: b.WindowHeight,
				Logger:       a.log,
			})
			if err != nil {
				return domain.NewErrorWithSuggestion("run", "", 0, "failed to start the browser",
					"install Chrome or set browser.exec_path in uitestkit.yaml", err)
			}
			defer closeBrowser()

			policy := automation.DefaultPolicy()
			if b.DefaultTimeout > 0 {
				policy.DefaultTimeout = b.DefaultTimeout
			}
			opts := append([]automation.Option{
				automation.WithLogger(a.log),
				automation.WithArtifactDir(b.ArtifactDir),
				automation.WithPolicy(policy),
			}, a.runnerOpts...)
			ex := executor.New(automation.NewRunner(page, opts...), a.log)

			passed := 0
			for _, tc := range cases {
				res := ex.Execute(ctx, tc, env)
				if res.Status == domain.RunPassed {
					passed++
					out(cmd, "%s %s\n", ui.Success(tc.Name), ui.Hint(ui.Seconds(res.ExecutionTime.Seconds())))
				} else {
					out(cmd, "%s\n  %s\n", ui.Failure(tc.Name+" ("+string(res.Status)+")"), res.ErrorMessage)
				}
				for _, shot := range res.Screenshots {
					out(cmd, "  %s\n", ui.Hint("screenshot "+shot))
				}
				if res.ScreenshotPath != "" {
					out(cmd, "  %s\n", ui.Hint("failure screenshot "+res.ScreenshotPath))
				}
				if ctx.Err() != nil {
					break
				}
			}

			out(cmd, "\n%d/%d passed\n", passed, len(cases))
			if passed != len(cases) {
				return fmt.Errorf("%d of %d test case(s) did not pass", len(cases)-passed, len(cases))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "case", "", "run only the test case with this name")
	cmd.Flags().StringVar(&env, "env", "", "environment URL replacing the first navigate step (default runner.environment_url)")
	return cmd
}
