// Package config loads the YAML configuration of the extraction tool.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFilePattern matches per-exam source files such as Exam_12.docx. The
// first capture group is the exam number.
const DefaultFilePattern = `^Exam_(\d+)\.(docx|html?|txt|md)$`

// Config is the complete tool configuration. Command-line flags override the
// values loaded from file.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Extract ExtractConfig `yaml:"extract"`
	Audit   AuditConfig   `yaml:"audit"`
	Watch   WatchConfig   `yaml:"watch"`
}

// InputConfig locates the source documents.
type InputConfig struct {
	Dir         string `yaml:"dir"`
	FilePattern string `yaml:"file_pattern"`
	MaxFileSize int64  `yaml:"max_file_size"`
}

// OutputConfig names the two generated tables.
type OutputConfig struct {
	Questions string `yaml:"questions"`
	Answers   string `yaml:"answers"`
}

// ExtractConfig tunes the record builder and the batch runner.
type ExtractConfig struct {
	Workers           int  `yaml:"workers"`
	RecoverUnnumbered bool `yaml:"recover_unnumbered"`
}

// AuditConfig holds the expectations checked by the audit command.
type AuditConfig struct {
	ExpectedQuestions int `yaml:"expected_questions"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Dir:         "exams",
			FilePattern: DefaultFilePattern,
			MaxFileSize: 50 << 20,
		},
		Output: OutputConfig{
			Questions: "questions.csv",
			Answers:   "answers.csv",
		},
		Extract: ExtractConfig{
			Workers: 1,
		},
		Audit: AuditConfig{
			ExpectedQuestions: 24,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// FromYAML decodes YAML on top of the defaults, so a file only needs the
// values it changes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML configuration file. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return FromYAML(data)
}

// ToYAML serializes the configuration.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return fmt.Errorf("failed to serialize config to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values that cannot be enforced by the YAML types.
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return fmt.Errorf("input.dir must not be empty")
	}
	if _, err := c.FilePattern(); err != nil {
		return err
	}
	if c.Output.Questions == "" || c.Output.Answers == "" {
		return fmt.Errorf("output.questions and output.answers must both be set")
	}
	if c.Output.Questions == c.Output.Answers {
		return fmt.Errorf("output.questions and output.answers must differ")
	}
	if c.Extract.Workers < 1 {
		return fmt.Errorf("extract.workers must be at least 1, got %d", c.Extract.Workers)
	}
	if c.Audit.ExpectedQuestions < 0 {
		return fmt.Errorf("audit.expected_questions must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// FilePattern compiles the source file pattern. It must contain a capture
// group for the exam number.
func (c *Config) FilePattern() (*regexp.Regexp, error) {
	pattern, err := regexp.Compile(c.Input.FilePattern)
	if err != nil {
		return nil, fmt.Errorf("input.file_pattern: %w", err)
	}
	if pattern.NumSubexp() < 1 {
		return nil, fmt.Errorf("input.file_pattern %q needs a capture group for the exam number", c.Input.FilePattern)
	}
	return pattern, nil
}
