// Package config loads the shell's optional YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the per-user config file looked up in the home
// directory.
const FileName = ".tshrc.yaml"

// Config holds the shell's tunables. Command-line flags override
// whatever the file says.
type Config struct {
	// Prompt is printed before each command read.
	Prompt string `yaml:"prompt"`
	// MaxJobs is the job table capacity.
	MaxJobs int `yaml:"max_jobs"`
	// Verbose enables a diagnostic line on every job registration.
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Prompt:  "tsh> ",
		MaxJobs: 16,
	}
}

// Load reads a YAML config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDefault loads the per-user config file, falling back to the
// defaults when the file does not exist.
func LoadDefault() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}

	path := filepath.Join(home, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// validate checks that all config values are usable.
func (c *Config) validate() error {
	if c.MaxJobs < 1 {
		return fmt.Errorf("invalid max_jobs %d: must be at least 1", c.MaxJobs)
	}
	if c.Prompt == "" {
		c.Prompt = Default().Prompt
	}
	return nil
}
