package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fjglira/uitestkit/internal/api"
	"github.com/fjglira/uitestkit/internal/coordinator"
	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/ui"
)

const tickInterval = 10 * time.Second

func newRunCmd(a *app) *cobra.Command {
	var tags, env string
	cmd := &cobra.Command{
		Use:   "run [id...]",
		Short: "Run backend test cases and follow their progress",
		Long: `Submits the given test cases (or every active one matching --tag, or all
active ones) to the backend one at a time and polls each run until it
finishes. Interrupting the command stops the session and prints the
summary of what completed. The command fails unless every test passed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			client, _, err := a.client()
			if err != nil {
				return err
			}
			tests, err := selectTests(cmd.Context(), client, ids, tags)
			if err != nil {
				return authError(err)
			}
			if len(tests) == 0 {
				return fmt.Errorf("no test cases to run")
			}
			if env == "" {
				env = a.cfg.Runner.EnvironmentURL
			}

			if a.cfg.DryRun {
				out(cmd, "would run %d test case(s)\n", len(tests))
				ui.TestsTable(cmd.OutOrStdout(), tests)
				return nil
			}

			renderer := ui.NewProgressRenderer(cmd.OutOrStdout())
			poller := coordinator.NewPoller(client, a.cfg.Runner.PollInterval, a.cfg.Runner.MaxPollAttempts,
				coordinator.WithPollLogger(a.log))
			coord := coordinator.New(client, poller, renderer, a.log)

			report, err := runSession(cmd.Context(), coord, renderer, tests, env)
			if err != nil {
				return err
			}

			ui.ResultsTable(cmd.OutOrStdout(), report.Results)
			if report.Summary.Stopped {
				return fmt.Errorf("execution stopped: %s", report.Summary)
			}
			if report.Summary.Passed != len(tests) {
				return fmt.Errorf("%d of %d test(s) did not pass", len(tests)-report.Summary.Passed, len(tests))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tags, "tag", "", "run the active test cases matching these tags")
	cmd.Flags().StringVar(&env, "env", "", "environment URL passed to every run (default runner.environment_url)")
	return cmd
}

// runSession runs tests while a second goroutine reports elapsed time and
// turns an interrupt into Stop.
func runSession(ctx context.Context, coord *coordinator.Coordinator, renderer *ui.ProgressRenderer, tests []domain.TestCase, env string) (coordinator.Report, error) {
	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	done := make(chan struct{})
	var report coordinator.Report
	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(done)
		var err error
		report, err = coord.Run(ctx, tests, env)
		return err
	})
	g.Go(func() error {
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-sigCtx.Done():
				coord.Stop()
				<-done
				return nil
			case <-t.C:
				if info, ok := coord.Active(); ok {
					renderer.Tick(info)
				}
			}
		}
	})
	err := g.Wait()
	return report, err
}

// selectTests resolves ids, or falls back to the active test cases matching tags.
func selectTests(ctx context.Context, client *api.Client, ids []int, tags string) ([]domain.TestCase, error) {
	if len(ids) == 0 {
		return client.ListTests(ctx, api.ListTestsOptions{Tags: tags})
	}
	tests := make([]domain.TestCase, 0, len(ids))
	for _, id := range ids {
		tc, err := client.GetTest(ctx, id)
		if err != nil {
			return nil, err
		}
		tests = append(tests, *tc)
	}
	return tests, nil
}
