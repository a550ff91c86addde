// Package config loads tool-level configuration, merged from defaults, the
// user config file and the project config file in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level tool configuration.
type Config struct {
	DefaultPipeline string `yaml:"default_pipeline"`
	LogLevel        string `yaml:"log_level"`
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.DefaultPipeline == "" {
		return fmt.Errorf("default_pipeline is required")
	}
	return nil
}

// Load resolves config from project → user → defaults.
func Load() (*Config, error) {
	cfg := defaults()

	// user-level config
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".pcb-maker", "config.yaml")
		if err := mergeFile(cfg, userPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	// project-level config (highest priority)
	projectPath := filepath.Join(".pcb-maker", "config.yaml")
	if err := mergeFile(cfg, projectPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, dst)
}

func defaults() *Config {
	return &Config{
		DefaultPipeline: "default",
		LogLevel:        "info",
	}
}
