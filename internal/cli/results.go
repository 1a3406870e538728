package cli

import (
	"github.com/spf13/cobra"

	"github.com/fjglira/uitestkit/internal/api"
	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/ui"
)

func newResultsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect run history and statistics",
	}

	var filter api.RunFilter
	var status string
	runs := &cobra.Command{
		Use:   "runs",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.client()
			if err != nil {
				return err
			}
			filter.Status = domain.RunStatus(status)
			list, err := client.ListRuns(cmd.Context(), filter)
			if err != nil {
				return authError(err)
			}
			if len(list) == 0 {
				out(cmd, "No runs found.\n")
				return nil
			}
			ui.RunsTable(cmd.OutOrStdout(), list)
			return nil
		},
	}
	runs.Flags().StringVar(&status, "status", "", "only runs with this status (pending, running, passed, failed, error)")
	runs.Flags().IntVar(&filter.TestCaseID, "test", 0, "only runs of this test case id")
	runs.Flags().IntVar(&filter.Skip, "skip", 0, "skip this many runs")
	runs.Flags().IntVar(&filter.Limit, "limit", 20, "return at most this many runs")

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals, status counts and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.client()
			if err != nil {
				return err
			}
			d, err := client.Dashboard(cmd.Context())
			if err != nil {
				return authError(err)
			}
			ui.DashboardTable(cmd.OutOrStdout(), d)
			return nil
		},
	}

	var days int
	trends := &cobra.Command{
		Use:   "trends",
		Short: "Show daily pass rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.client()
			if err != nil {
				return err
			}
			t, err := client.Trends(cmd.Context(), days)
			if err != nil {
				return authError(err)
			}
			ui.TrendsTable(cmd.OutOrStdout(), t)
			return nil
		},
	}
	trends.Flags().IntVar(&days, "days", 7, "number of days")

	cmd.AddCommand(runs, dashboard, trends)
	return cmd
}
