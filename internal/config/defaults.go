package config

import "time"

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	recursive := true
	return &Config{
		Input: InputConfig{
			Directories: []string{"tests/ui"},
			Include:     []string{"*.yaml", "*.yml", "*.md"},
			Exclude:     []string{"generated/**", "node_modules/**"},
			Recursive:   &recursive,
		},
		Markers: MarkerConfig{
			StepTags: []string{"ui-step"},
			TestStart: []string{
				"<!-- test-start:",
			},
			TestEnd: []string{
				"<!-- test-end",
			},
		},
		Output: OutputConfig{
			Directory:           "tests/ui/generated",
			FilePrefix:          "generated_",
			FileSuffix:          "_test.go",
			PackageName:         "ui_generated",
			BuildTag:            "uitest",
			CleanBeforeGenerate: true,
		},
		Templates: TemplateConfig{
			Spec:  "ginkgo_spec",
			Suite: "ginkgo_suite",
		},
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			RequestTimeout: 30 * time.Second,
		},
		Runner: RunnerConfig{
			PollInterval:    2 * time.Second,
			MaxPollAttempts: 60,
		},
		Browser: BrowserConfig{
			Headless:       true,
			WindowWidth:    1920,
			WindowHeight:   1080,
			ArtifactDir:    "artifacts",
			DefaultTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		DryRun: false,
	}
}
