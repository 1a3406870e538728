package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fjglira/uitestkit/internal/domain"
)

// Poll interval bounds for backend runs.
const (
	MinPollInterval = 2 * time.Second
	MaxPollInterval = 5 * time.Second
)

// Validate checks the Config for required fields and valid values.
func Validate(cfg *Config) error {
	var errs []string

	// Input validation
	if len(cfg.Input.Directories) == 0 {
		errs = append(errs, "input.directories must not be empty")
	}
	if len(cfg.Input.Include) == 0 {
		errs = append(errs, "input.include must not be empty")
	}

	if len(cfg.Markers.StepTags) == 0 {
		errs = append(errs, "markers.step_tags must not be empty")
	}

	// Output validation
	if cfg.Output.Directory == "" {
		errs = append(errs, "output.directory must not be empty")
	}
	if cfg.Output.PackageName == "" {
		errs = append(errs, "output.package_name must not be empty")
	}
	if !strings.HasSuffix(cfg.Output.FileSuffix, "_test.go") {
		errs = append(errs, "output.file_suffix must end with _test.go")
	}

	if cfg.Templates.Spec == "" || cfg.Templates.Suite == "" {
		errs = append(errs, "templates.spec and templates.suite must not be empty")
	}

	if u, err := url.Parse(cfg.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url must be an absolute http(s) URL (got %q)", cfg.API.BaseURL))
	}
	if cfg.API.RequestTimeout <= 0 {
		errs = append(errs, "api.request_timeout must be positive")
	}

	if cfg.Runner.PollInterval < MinPollInterval || cfg.Runner.PollInterval > MaxPollInterval {
		errs = append(errs, fmt.Sprintf("runner.poll_interval must be between %s and %s (got %s)", MinPollInterval, MaxPollInterval, cfg.Runner.PollInterval))
	}
	if cfg.Runner.MaxPollAttempts <= 0 {
		errs = append(errs, "runner.max_poll_attempts must be positive")
	}

	if cfg.Browser.WindowWidth <= 0 || cfg.Browser.WindowHeight <= 0 {
		errs = append(errs, "browser.window_width and browser.window_height must be positive")
	}
	if cfg.Browser.DefaultTimeout <= 0 {
		errs = append(errs, "browser.default_timeout must be positive")
	}

	// Validate logging level
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Logging.Level] {
			errs = append(errs, fmt.Sprintf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
		}
	}

	if len(errs) > 0 {
		return domain.NewError("config", "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), nil)
	}

	return nil
}
