// Package config loads packing configuration from an optional YAML file and
// provides validated defaults. Flags set on the CLI override file values;
// there is no ambient process-wide configuration.
package config

import (
	"errors"
	"fmt"

	"promptpack/pkg/ignore"
	"promptpack/pkg/tokens"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds every knob the packing pipeline needs. Components receive it
// (or the relevant slice of it) explicitly.
type Config struct {
	Root           string
	Model          string
	BudgetFraction float64
	Workers        int
	MaxFileSizeKB  int
	RulesFile      string
	IgnorePatterns ignore.PatternSet
}

// Default returns the configuration used when no config file is present.
// The ignore defaults cover the usual build, dependency, and VCS clutter.
func Default() Config {
	return Config{
		Root:           ".",
		Model:          tokens.DefaultModel,
		BudgetFraction: 0.7,
		Workers:        4,
		MaxFileSizeKB:  1024,
		IgnorePatterns: ignore.PatternSet{
			Directories: []string{
				".git",
				".hg",
				".svn",
				".idea",
				".vscode",
				"__pycache__",
				"node_modules",
				"venv",
				".venv",
				"dist",
				"build",
				"target",
			},
			Files: []string{
				"*.pyc",
				"*.pyo",
				"*.so",
				"*.dll",
				"*.exe",
				"*.bin",
				"*.log",
				"*.lock",
				".DS_Store",
			},
		},
	}
}

// Load reads configuration from path. An empty path looks for config.yaml in
// the working directory; a missing file yields the defaults without error.
// A file with an invalid pattern set is rejected and the defaults stay in
// effect.
func Load(path string, logger *zap.Logger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := Default()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			logger.Debug("No config file found, using defaults")
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	logger.Debug("Loaded config file", zap.String("file", v.ConfigFileUsed()))

	if v.IsSet("root") {
		cfg.Root = v.GetString("root")
	}
	if v.IsSet("model") {
		cfg.Model = v.GetString("model")
	}
	if v.IsSet("budget_fraction") {
		cfg.BudgetFraction = v.GetFloat64("budget_fraction")
	}
	if v.IsSet("workers") {
		cfg.Workers = v.GetInt("workers")
	}
	if v.IsSet("max_file_size_kb") {
		cfg.MaxFileSizeKB = v.GetInt("max_file_size_kb")
	}
	if v.IsSet("rules_file") {
		cfg.RulesFile = v.GetString("rules_file")
	}

	patterns := cfg.IgnorePatterns
	if v.IsSet("ignore_patterns.directories") {
		patterns.Directories = v.GetStringSlice("ignore_patterns.directories")
	}
	if v.IsSet("ignore_patterns.files") {
		patterns.Files = v.GetStringSlice("ignore_patterns.files")
	}
	if err := cfg.SetIgnorePatterns(patterns); err != nil {
		return Default(), fmt.Errorf("config file %s: %w", v.ConfigFileUsed(), err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// SetIgnorePatterns replaces the active pattern set after validating it.
// On failure the previously active set remains in effect.
func (c *Config) SetIgnorePatterns(patterns ignore.PatternSet) error {
	if err := patterns.Validate(); err != nil {
		return fmt.Errorf("invalid ignore patterns: %w", err)
	}
	c.IgnorePatterns = patterns.Clone()
	return nil
}

// Validate checks the scalar fields for usable values.
func (c Config) Validate() error {
	if c.Root == "" {
		return errors.New("root path must not be empty")
	}
	if c.BudgetFraction <= 0 || c.BudgetFraction > 1 {
		return fmt.Errorf("budget_fraction must be in (0, 1], got %g", c.BudgetFraction)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxFileSizeKB < 0 {
		return fmt.Errorf("max_file_size_kb must not be negative, got %d", c.MaxFileSizeKB)
	}
	return c.IgnorePatterns.Validate()
}
