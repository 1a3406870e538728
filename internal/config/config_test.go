package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/uitestkit/internal/config"
)

var _ = Describe("Config", func() {
	Describe("Load", func() {
		It("should load minimal config", func() {
			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "minimal.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg).ToNot(BeNil())
			Expect(cfg.Input.Directories).To(ContainElement("tests/ui"))
			Expect(cfg.Markers.StepTags).To(ContainElement("ui-step"))
			Expect(cfg.Output.PackageName).To(Equal("ui_generated"))
			Expect(cfg.Runner.PollInterval).To(Equal(2 * time.Second))
		})

		It("should load full config", func() {
			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "full.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg).ToNot(BeNil())
			Expect(cfg.Input.Directories).To(HaveLen(3))
			Expect(cfg.Markers.StepTags).To(ContainElements("ui-step", "d365-step"))
			Expect(cfg.Output.BuildTag).To(Equal("e2e"))
			Expect(cfg.API.BaseURL).To(Equal("https://uitest.example.com/api"))
			Expect(cfg.API.RequestTimeout).To(Equal(15 * time.Second))
			Expect(cfg.Runner.PollInterval).To(Equal(3 * time.Second))
			Expect(cfg.Runner.MaxPollAttempts).To(Equal(40))
			Expect(cfg.Browser.Headless).To(BeFalse())
			Expect(cfg.Browser.DefaultTimeout).To(Equal(20 * time.Second))
		})

		It("should return error for nonexistent file", func() {
			_, err := config.Load("nonexistent.yaml")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid YAML", func() {
			tmpFile := filepath.Join(GinkgoT().TempDir(), "invalid_uitestkit.yaml")
			Expect(os.WriteFile(tmpFile, []byte("{{invalid yaml}}"), 0644)).To(Succeed())

			_, loadErr := config.Load(tmpFile)
			Expect(loadErr).To(HaveOccurred())
		})
	})

	Describe("LoadOrDefault", func() {
		It("should fall back to defaults when the file is missing", func() {
			cfg, err := config.LoadOrDefault(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg).To(Equal(config.DefaultConfig()))
		})
	})

	Describe("DefaultConfig", func() {
		It("should return config with sensible defaults", func() {
			cfg := config.DefaultConfig()
			Expect(*cfg.Input.Recursive).To(BeTrue())
			Expect(cfg.Output.FileSuffix).To(Equal("_test.go"))
			Expect(cfg.Runner.MaxPollAttempts).To(Equal(60))
			Expect(cfg.Browser.DefaultTimeout).To(Equal(30 * time.Second))
			Expect(cfg.Logging.Level).To(Equal("info"))
			Expect(config.Validate(cfg)).To(Succeed())
		})
	})

	Describe("Validate", func() {
		It("should pass for valid config", func() {
			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "full.yaml"))
			Expect(err).ToNot(HaveOccurred())
			Expect(config.Validate(cfg)).To(Succeed())
		})

		DescribeTable("poll interval bounds",
			func(interval time.Duration, ok bool) {
				cfg := config.DefaultConfig()
				cfg.Runner.PollInterval = interval
				if ok {
					Expect(config.Validate(cfg)).To(Succeed())
				} else {
					Expect(config.Validate(cfg)).To(MatchError(ContainSubstring("runner.poll_interval")))
				}
			},
			Entry("below minimum", time.Second, false),
			Entry("minimum", 2*time.Second, true),
			Entry("maximum", 5*time.Second, true),
			Entry("above maximum", 6*time.Second, false),
		)

		It("should report every problem at once", func() {
			cfg := config.DefaultConfig()
			cfg.Input.Directories = nil
			cfg.API.BaseURL = "localhost:8000"
			cfg.Logging.Level = "verbose"
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("input.directories"))
			Expect(err.Error()).To(ContainSubstring("api.base_url"))
			Expect(err.Error()).To(ContainSubstring("logging.level"))
		})

		It("should fail if file suffix is not a test file", func() {
			cfg := config.DefaultConfig()
			cfg.Output.FileSuffix = ".go"
			Expect(config.Validate(cfg)).To(MatchError(ContainSubstring("file_suffix")))
		})
	})
})
