package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fjglira/uitestkit/internal/builder"
	"github.com/fjglira/uitestkit/internal/domain"
	"github.com/fjglira/uitestkit/internal/steps"
	"github.com/fjglira/uitestkit/internal/ui"
)

func builderRows(tc domain.TestCase) []builder.Row {
	return builder.New(tc).Rows()
}

// stepFlags are the editor form fields of a step.
type stepFlags struct {
	description string
	selector    string
	value       string
	timeout     int
	expect      string
	text        string
}

func (f *stepFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.description, "description", "", "step description")
	flags.StringVar(&f.selector, "selector", "", "element selector (CSS, or XPath starting with / or xpath=)")
	flags.StringVar(&f.value, "value", "", "URL, field value or wait time in ms")
	flags.IntVar(&f.timeout, "timeout", 0, fmt.Sprintf("timeout in ms (%d-%d)", domain.MinStepTimeout, domain.MaxStepTimeout))
	flags.StringVar(&f.expect, "expect", "", "verify mode: visible, hidden or text")
	flags.StringVar(&f.text, "text", "", "text the element must contain (implies --expect text)")
}

// apply overlays the flags the user set onto form.
func (f *stepFlags) apply(cmd *cobra.Command, form builder.Form) (builder.Form, error) {
	changed := cmd.Flags().Changed
	if changed("description") {
		form.Description = f.description
	}
	if changed("selector") {
		form.Selector = f.selector
	}
	if changed("value") {
		form.Value = f.value
	}
	if changed("timeout") {
		form.Timeout = f.timeout
	}
	if changed("text") {
		form.Verify = steps.VerifyChoice{Mode: steps.VerifyText, Text: f.text}
	}
	if changed("expect") {
		mode := steps.VerifyMode(strings.ToLower(f.expect))
		switch mode {
		case steps.VerifyVisible, steps.VerifyHidden, steps.VerifyText:
		default:
			return form, fmt.Errorf("unknown verify mode %q (want visible, hidden or text)", f.expect)
		}
		form.Verify.Mode = mode
		if mode == steps.VerifyText && form.Verify.Text == "" {
			return form, fmt.Errorf("--expect text needs --text")
		}
	}
	return form, nil
}

// stepFile is an opened definition file with one selected test case.
type stepFile struct {
	path  string
	cases []domain.TestCase
	index int
	b     *builder.Builder
}

func (a *app) openStepFile(path, name string, writable bool) (*stepFile, error) {
	if writable && !isYAML(path) {
		return nil, fmt.Errorf("%s: steps can only be edited in YAML definition files", path)
	}
	cases, err := readDefinitions(a.cfg, path)
	if err != nil {
		return nil, err
	}
	i, err := pickCase(cases, name, path)
	if err != nil {
		return nil, err
	}
	return &stepFile{path: path, cases: cases, index: i, b: builder.New(cases[i])}, nil
}

// save prints the new step list and writes the file unless dry-run is set.
func (a *app) saveStepFile(cmd *cobra.Command, f *stepFile) error {
	ui.StepsTable(cmd.OutOrStdout(), f.b.Rows())
	for _, v := range f.b.Validate() {
		out(cmd, "%s\n", ui.Hint("warning: "+v.String()))
	}
	if a.cfg.DryRun {
		out(cmd, "dry run, %s not written\n", f.path)
		return nil
	}
	f.cases[f.index] = f.b.TestCase()
	return writeDefinitions(f.path, f.cases)
}

func stepNumber(s string, b *builder.Builder) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > b.Len() {
		return -1, fmt.Errorf("step %q out of range (1-%d)", s, b.Len())
	}
	return n - 1, nil
}

func newStepsCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Edit the steps of a test case in a YAML definition file",
	}
	cmd.PersistentFlags().StringVar(&name, "case", "", "test case to edit when the file holds several")

	list := &cobra.Command{
		Use:   "list <file>",
		Short: "List the steps of a test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.openStepFile(args[0], name, false)
			if err != nil {
				return err
			}
			out(cmd, "%s\n", f.b.TestCase().Name)
			ui.StepsTable(cmd.OutOrStdout(), f.b.Rows())
			return nil
		},
	}

	var addFlags stepFlags
	add := &cobra.Command{
		Use:   "add <file> <type>",
		Short: "Append a step",
		Long: `Appends a step of the given type (navigate, click, fill, verify, wait,
screenshot) and fills it from the form flags.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.openStepFile(args[0], name, true)
			if err != nil {
				return err
			}
			i, err := f.b.AddStep(domain.StepType(args[1]))
			if err != nil {
				return err
			}
			form, err := f.b.FormFor(i)
			if err != nil {
				return err
			}
			if form, err = addFlags.apply(cmd, form); err != nil {
				return err
			}
			if err := f.b.EditStep(i, form); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			return a.saveStepFile(cmd, f)
		},
	}
	addFlags.register(add)

	var editFlags stepFlags
	edit := &cobra.Command{
		Use:   "edit <file> <step>",
		Short: "Change the fields of a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.openStepFile(args[0], name, true)
			if err != nil {
				return err
			}
			i, err := stepNumber(args[1], f.b)
			if err != nil {
				return err
			}
			form, err := f.b.FormFor(i)
			if err != nil {
				return err
			}
			if form, err = editFlags.apply(cmd, form); err != nil {
				return err
			}
			if err := f.b.EditStep(i, form); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			return a.saveStepFile(cmd, f)
		},
	}
	editFlags.register(edit)

	move := &cobra.Command{
		Use:   "move <file> <from> <to>",
		Short: "Move a step to another position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.openStepFile(args[0], name, true)
			if err != nil {
				return err
			}
			from, err := stepNumber(args[1], f.b)
			if err != nil {
				return err
			}
			to, err := stepNumber(args[2], f.b)
			if err != nil {
				return err
			}
			if err := f.b.MoveStep(from, to); err != nil {
				return err
			}
			return a.saveStepFile(cmd, f)
		},
	}

	rm := &cobra.Command{
		Use:     "rm <file> <step>",
		Aliases: []string{"remove"},
		Short:   "Delete a step",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.openStepFile(args[0], name, true)
			if err != nil {
				return err
			}
			i, err := stepNumber(args[1], f.b)
			if err != nil {
				return err
			}
			if err := f.b.RemoveStep(i); err != nil {
				return err
			}
			return a.saveStepFile(cmd, f)
		},
	}

	cmd.AddCommand(list, add, edit, move, rm)
	return cmd
}
