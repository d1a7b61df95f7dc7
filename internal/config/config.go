/*
PURPOSE:
  Defines the configuration structure and loading logic for Memory Runner.
  The configuration is the scenario source for the resolver.

REQUIREMENTS:
  User-specified:
  - Allow configuration of scenarios, the report directory and the runtime label.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - The Node.js/Java suites keep scenarios in a bare JSON array
    (config/memory-scenarios.json). JSON is valid YAML, so the same loader reads it.
  - Needs to support Environment variables overrides (MEMORY_RUNNER_...).

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3, github.com/go-playground/validator/v10

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default files are not an error (defaults are returned, with no scenarios).

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (50 iterations, reports/memory).

USAGE:
  cfg, err := config.Load("memory_runner.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig()/applyEnv().

RELATED FILES:
  - internal/cli/root.go
  - internal/scenario/resolver.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/daryltucker/memory-runner/internal/model"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths are tried in order when no config path is given.
var DefaultSearchPaths = []string{
	"memory_runner.yaml",
	"memory_runner.yml",
	"config/memory-scenarios.json",
}

// Config represents the full configuration for Memory Runner.
type Config struct {
	Scenarios         []model.Scenario `yaml:"scenarios" validate:"unique=ID,dive"`
	ReportDir         string           `yaml:"report_dir" validate:"required"`
	DefaultIterations int              `yaml:"default_iterations" validate:"gt=0"`
	RuntimeLabel      string           `yaml:"runtime_label" validate:"required"`
	LogLevel          string           `yaml:"log_level"`
	LogFormat         string           `yaml:"log_format" validate:"omitempty,oneof=auto text json"`

	// HistoryDB enables the SQLite run history when set.
	HistoryDB string `yaml:"history_db"`

	// Source records which file the config was loaded from ("" for defaults).
	Source string `yaml:"-"`
}

var validate = validator.New()

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ReportDir:         "reports/memory",
		DefaultIterations: 50,
		RuntimeLabel:      "go",
		LogLevel:          "info",
		LogFormat:         "auto",
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches DefaultSearchPaths in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		found := false
		for _, name := range DefaultSearchPaths {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				found = true
				break
			}
		}
		if !found {
			applyEnv(cfg)
			return cfg, nil
		}
	}

	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Source = path
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// decode accepts either a full Config mapping or a bare scenario sequence.
func decode(data []byte, cfg *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty file
		return nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		return root.Decode(&cfg.Scenarios)
	}
	return root.Decode(cfg)
}

// Validate checks scenario descriptors and defaults.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Errorf("%s failed %q check (value %v)", first.Namespace(), first.Tag(), first.Value())
	}
	return err
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MEMORY_RUNNER_REPORT_DIR"); v != "" {
		cfg.ReportDir = v
	}
	if v := os.Getenv("MEMORY_RUNNER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MEMORY_RUNNER_RUNTIME_LABEL"); v != "" {
		cfg.RuntimeLabel = v
	}
	if v := os.Getenv("MEMORY_RUNNER_HISTORY_DB"); v != "" {
		cfg.HistoryDB = v
	}
	if v := os.Getenv("MEMORY_RUNNER_DEFAULT_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultIterations = n
		}
	}
}
