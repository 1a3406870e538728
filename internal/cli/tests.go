package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fjglira/uitestkit/internal/api"
	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/parser"
	"github.com/fjglira/uitestkit/internal/steps"
	"github.com/fjglira/uitestkit/internal/ui"
)

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, s := range args {
		id, err := strconv.Atoi(s)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid test case id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newTestsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tests",
		Aliases: []string{"test"},
		Short:   "Manage test cases stored on the backend",
	}
	cmd.AddCommand(
		newTestsListCmd(a),
		newTestsShowCmd(a),
		newTestsPushCmd(a),
		newTestsPullCmd(a),
		newTestsDeleteCmd(a),
	)
	return cmd
}

func newTestsListCmd(a *app) *cobra.Command {
	var opts api.ListTestsOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active test cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.client()
			if err != nil {
				return err
			}
			cases, err := client.ListTests(cmd.Context(), opts)
			if err != nil {
				return authError(err)
			}
			if len(cases) == 0 {
				out(cmd, "No test cases found.\n")
				return nil
			}
			ui.TestsTable(cmd.OutOrStdout(), cases)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Search, "search", "", "match name or description")
	cmd.Flags().StringVar(&opts.Tags, "tags", "", "match tags")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "skip this many test cases")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "return at most this many test cases")
	return cmd
}

func newTestsShowCmd(a *app) *cobra.Command {
	var runs int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a test case, its steps and its latest runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			client, _, err := a.client()
			if err != nil {
				return err
			}
			tc, err := client.GetTest(cmd.Context(), ids[0])
			if err != nil {
				return authError(err)
			}

			w := cmd.OutOrStdout()
			out(cmd, "#%d %s\n", tc.IDValue(), tc.Name)
			if tc.Description != "" {
				out(cmd, "%s\n", tc.Description)
			}
			if tc.Tags != "" {
				out(cmd, "%s\n", ui.Hint("tags: "+tc.Tags))
			}
			ui.StepsTable(w, builderRows(*tc))

			if runs > 0 {
				history, err := client.ListTestRuns(cmd.Context(), ids[0], runs)
				if err != nil {
					return authError(err)
				}
				if len(history) > 0 {
					out(cmd, "\nLatest runs\n")
					ui.RunsTable(w, history)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 5, "number of latest runs to show, 0 for none")
	return cmd
}

func newTestsPushCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "push <definition file>",
		Short: "Create or update backend test cases from a definition file",
		Long: `Normalizes and validates every test case of the file, then creates the ones
without an id and updates the others. Ids assigned to new test cases are
written back into YAML definition files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cases, err := readDefinitions(a.cfg, path)
			if err != nil {
				return err
			}
			selected := make([]int, 0, len(cases))
			if name != "" {
				i, err := pickCase(cases, name, path)
				if err != nil {
					return err
				}
				selected = append(selected, i)
			} else {
				for i := range cases {
					selected = append(selected, i)
				}
			}
			if len(selected) == 0 {
				return fmt.Errorf("%s: no test cases found", path)
			}

			client, _, err := a.client()
			if err != nil {
				return err
			}

			var errs []error
			created := false
			for _, i := range selected {
				tc := cases[i]
				kept, dropped := steps.Normalize(tc.Steps)
				if len(dropped) > 0 {
					out(cmd, "%s\n", ui.Hint(fmt.Sprintf("%s: dropped incomplete or unknown steps %v", tc.Name, dropped)))
				}
				tc.Steps = kept
				if err := steps.Check(tc); err != nil {
					out(cmd, "%s\n", ui.Failure(err.Error()))
					errs = append(errs, err)
					continue
				}

				if a.cfg.DryRun {
					verb := "create"
					if tc.ID != nil {
						verb = fmt.Sprintf("update #%d", *tc.ID)
					}
					out(cmd, "would %s %s (%d steps)\n", verb, tc.Name, len(tc.Steps))
					continue
				}

				var saved *domain.TestCase
				if tc.ID != nil {
					saved, err = client.UpdateTest(cmd.Context(), *tc.ID, api.UpdateFrom(tc))
				} else {
					saved, err = client.CreateTest(cmd.Context(), tc)
				}
				if err != nil {
					if api.IsUnauthorized(err) {
						return authError(err)
					}
					out(cmd, "%s\n", ui.Failure(fmt.Sprintf("%s: %v", tc.Name, err)))
					errs = append(errs, err)
					continue
				}
				if tc.ID == nil {
					created = true
					cases[i].ID = saved.ID
				}
				out(cmd, "%s\n", ui.Success(fmt.Sprintf("#%d %s", saved.IDValue(), saved.Name)))
			}

			if created && isYAML(path) {
				if err := writeDefinitions(path, cases); err != nil {
					return err
				}
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d test case(s) not pushed: %w", len(errs), errors.Join(errs...))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "case", "", "push only the test case with this name")
	return cmd
}

func newTestsPullCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pull <id>...",
		Short: "Write backend test cases to a YAML definition file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			client, _, err := a.client()
			if err != nil {
				return err
			}
			cases := make([]domain.TestCase, 0, len(ids))
			for _, id := range ids {
				tc, err := client.GetTest(cmd.Context(), id)
				if err != nil {
					return authError(err)
				}
				cases = append(cases, *tc)
			}

			data, err := parser.MarshalYAML(cases)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if a.cfg.DryRun {
				out(cmd, "would write %d test case(s) to %s\n", len(cases), output)
				return nil
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return domain.NewError("write", output, 0, "failed to write definitions", err)
			}
			out(cmd, "%s\n", ui.Success(fmt.Sprintf("wrote %d test case(s) to %s", len(cases), output)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, standard output when empty")
	return cmd
}

func newTestsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Deactivate test cases; their run history is kept",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			client, _, err := a.client()
			if err != nil {
				return err
			}
			for _, id := range ids {
				if a.cfg.DryRun {
					out(cmd, "would delete #%d\n", id)
					continue
				}
				if err := client.DeleteTest(cmd.Context(), id); err != nil {
					return authError(err)
				}
				out(cmd, "%s\n", ui.Success(fmt.Sprintf("deleted #%d", id)))
			}
			return nil
		},
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
