package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/uitestkit/internal/domain"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "uitestkit.yaml"

// Config is the top-level configuration struct.
type Config struct {
	Input     InputConfig    `yaml:"input"`
	Markers   MarkerConfig   `yaml:"markers"`
	Output    OutputConfig   `yaml:"output"`
	Templates TemplateConfig `yaml:"templates"`
	API       APIConfig      `yaml:"api"`
	Runner    RunnerConfig   `yaml:"runner"`
	Browser   BrowserConfig  `yaml:"browser"`
	Logging   LoggingConfig  `yaml:"logging"`
	DryRun    bool           `yaml:"dry_run"`
}

type InputConfig struct {
	Directories []string `yaml:"directories"`
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	Recursive   *bool    `yaml:"recursive"` // pointer to distinguish unset from false
}

// MarkerConfig controls how test cases are found in Markdown definitions.
type MarkerConfig struct {
	StepTags  []string `yaml:"step_tags"`
	TestStart []string `yaml:"test_start"`
	TestEnd   []string `yaml:"test_end"`
}

type OutputConfig struct {
	Directory           string `yaml:"directory"`
	FilePrefix          string `yaml:"file_prefix"`
	FileSuffix          string `yaml:"file_suffix"`
	PackageName         string `yaml:"package_name"`
	BuildTag            string `yaml:"build_tag"`
	CleanBeforeGenerate bool   `yaml:"clean_before_generate"`
}

// TemplateConfig selects the templates rendering generated files. An empty
// directory uses the built-in ones.
type TemplateConfig struct {
	Directory string `yaml:"directory"`
	Spec      string `yaml:"spec"`
	Suite     string `yaml:"suite"`
}

type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	CredentialsDir string        `yaml:"credentials_dir"` // empty means ~/.uitestkit
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// RunnerConfig tunes polling of backend runs.
type RunnerConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`
	EnvironmentURL  string        `yaml:"environment_url"`
}

type BrowserConfig struct {
	Headless       bool          `yaml:"headless"`
	ExecPath       string        `yaml:"exec_path"`
	WindowWidth    int           `yaml:"window_width"`
	WindowHeight   int           `yaml:"window_height"`
	ArtifactDir    string        `yaml:"artifact_dir"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads a YAML configuration file and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError("config", path, 0, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError("config", path, 0, "failed to parse config file", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}
