package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-cellml/pkg/validation"
)

// Defaults applied to fields left unset in the YAML file.
const (
	DefaultLogLevel          = "info"
	DefaultDiagnosticsBuffer = 256
)

// Config holds the runtime settings for the cellml tool.
type Config struct {
	// LogLevel controls the JSON logger verbosity.
	LogLevel string `yaml:"log_level" validate:"required,oneof=debug info warn error"`

	// Strict promotes recoverable parse warnings (unresolved units
	// references, free variables without an initial value) to errors.
	Strict bool `yaml:"strict"`

	// DiagnosticsBuffer is the capacity of the in-memory event recorder.
	DiagnosticsBuffer int `yaml:"diagnostics_buffer" validate:"min=1,max=100000"`

	// Metrics enables the Prometheus registry.
	Metrics bool `yaml:"metrics"`
}

// Default returns a config populated with default values.
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		DiagnosticsBuffer: DefaultDiagnosticsBuffer,
	}
}

// Load reads a YAML config file, fills in defaults for unset fields and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.LogLevel = validation.DefaultOr(c.LogLevel, DefaultLogLevel)
	// Only the unset zero gets a default; a negative value is a config error.
	c.DiagnosticsBuffer = validation.DefaultOr(c.DiagnosticsBuffer, DefaultDiagnosticsBuffer)
}

// Validate checks the config against its struct tags and range constraints.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("Config: %w", err)
	}
	return validation.NewConfigValidator("Config").
		RangeInt("DiagnosticsBuffer", c.DiagnosticsBuffer, 1, 100000).
		Validate()
}
