package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete tool configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Validation ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required"`
}

// ValidationConfig contains data validation configuration. The accepted
// boolean literal set for IsExpenseAccount/IsAnnual is deliberately
// configurable; sample uploads are not consistent about true/false vs 1/0.
type ValidationConfig struct {
	BooleanLiterals []string `yaml:"boolean_literals" envconfig:"BOOLEAN_LITERALS" validate:"min=1"`
}

// OutputConfig contains output archive configuration.
type OutputConfig struct {
	// DateFormat is the Go time layout for the date stamp in archive member
	// names, e.g. property_20200101.txt.
	DateFormat string `yaml:"date_format" envconfig:"DATE_FORMAT" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/bulkupload.log",
		},
		Validation: ValidationConfig{
			BooleanLiterals: []string{"true", "false", "1", "0"},
		},
		Output: OutputConfig{
			DateFormat: "20060102",
		},
	}
}

// Load builds the configuration from defaults, an optional config.yaml in the
// working directory, and REDIQ_* environment variables, in increasing
// precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := envconfig.Process("REDIQ", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// configFilePath returns the first config file found in the working
// directory, or empty when none exists.
func configFilePath() string {
	for _, name := range []string{"config.yaml", "config.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
