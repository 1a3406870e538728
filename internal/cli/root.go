// Package cli implements the uitestkit command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fjglira/uitestkit/internal/api"
	"github.com/fjglira/uitestkit/internal/config"
	"github.com/fjglira/uitestkit/internal/credentials"
	"github.com/fjglira/uitestkit/pkg/automation"
	"github.com/fjglira/uitestkit/pkg/automation/cdp"
)

// app carries the global flags and what PersistentPreRunE derives from them.
type app struct {
	cfgFile string
	verbose bool
	dryRun  bool
	apiURL  string
	credDir string

	log     *logrus.Logger
	cfg     *config.Config
	logFile io.Closer

	// browser seam for exec
	launch     launchFunc
	runnerOpts []automation.Option
}

type launchFunc func(ctx context.Context, opts cdp.Options) (automation.Page, func(), error)

func launchChrome(ctx context.Context, opts cdp.Options) (automation.Page, func(), error) {
	page, closeFn, err := cdp.Launch(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return page, closeFn, nil
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{log: logrus.New(), launch: launchChrome})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "uitestkit",
		Short: "Author, generate and run UI regression tests",
		Long: `uitestkit manages UI test cases for a web application.

Test cases are ordered steps (navigate, click, fill, verify, wait, screenshot)
kept in YAML or Markdown definition files or on the test management backend.
They can be compiled into Ginkgo specs, executed locally in Chrome, or run
remotely through the backend.

Settings are read from a YAML configuration file (uitestkit.yaml).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				_ = a.logFile.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", config.DefaultFile, "config file path")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVar(&a.dryRun, "dry-run", false, "show what would change without writing anything")
	flags.StringVar(&a.apiURL, "api-url", "", "backend base URL (overrides api.base_url)")
	flags.StringVar(&a.credDir, "credentials-dir", "", "directory holding credentials.json (default ~/.uitestkit)")

	root.AddCommand(
		newGenerateCmd(a),
		newValidateCmd(a),
		newExecCmd(a),
		newRunCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newTestsCmd(a),
		newStepsCmd(a),
		newResultsCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// setup loads the configuration when present and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.dryRun {
		cfg.DryRun = true
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	if a.credDir != "" {
		cfg.API.CredentialsDir = a.credDir
	}
	a.cfg = cfg

	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level := logrus.InfoLevel
	if cfg.Logging.Level != "" {
		if parsed, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsed
		}
	}
	if a.verbose {
		level = logrus.DebugLevel
	}
	a.log.SetLevel(level)

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.log.SetOutput(io.MultiWriter(cmd.ErrOrStderr(), f))
		a.logFile = f
	}
	return nil
}

func (a *app) store() (*credentials.Store, error) {
	dir := a.cfg.API.CredentialsDir
	if dir == "" {
		var err error
		if dir, err = credentials.DefaultDir(); err != nil {
			return nil, fmt.Errorf("failed to locate home directory: %w", err)
		}
	}
	return credentials.NewStore(dir), nil
}

// client returns an API client authenticated with the stored session.
func (a *app) client() (*api.Client, *credentials.Store, error) {
	store, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	return api.New(a.cfg.API.BaseURL, store,
		api.WithTimeout(a.cfg.API.RequestTimeout),
		api.WithLogger(a.log),
	), store, nil
}

// authError adds a hint to errors caused by a missing or expired session.
func authError(err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("%w\n\n→ Run 'uitestkit login' to sign in again", err)
	}
	return err
}

func out(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
