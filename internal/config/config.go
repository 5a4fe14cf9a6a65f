// Package config loads and validates the build configuration and derives
// the absolute source/build paths every other component works against.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bindery/internal/errors"
)

// Config represents the static build configuration. It is created once at
// process start and never mutated afterwards.
type Config struct {
	Title      string        `yaml:"title"`
	Source     string        `yaml:"source"`
	Build      string        `yaml:"build"`
	ContentDir string        `yaml:"content_dir"`
	Preview    PreviewConfig `yaml:"preview"`
	Checker    CheckerConfig `yaml:"checker"`
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Port      int    `yaml:"port"`
	StartPath string `yaml:"start_path,omitempty"`
}

// CheckerConfig configures the external archive validator.
type CheckerConfig struct {
	Command string `yaml:"command,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to unmarshal config")
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Source == "" {
		c.Source = "src"
	}
	if c.Build == "" {
		c.Build = "build"
	}
	if c.ContentDir == "" {
		c.ContentDir = "EPUB"
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = 8080
	}
	if c.Checker.Command == "" {
		c.Checker.Command = "epubcheck"
	}
}

// Validate checks the configuration for fields no build can proceed without.
func (c *Config) Validate() error {
	if c.Title == "" {
		return errors.ConfigError("title is required")
	}
	if c.Source == c.Build {
		return errors.ConfigError("source and build directories must differ").
			WithContext("source", c.Source).
			WithContext("build", c.Build)
	}
	if c.Preview.Port < 1 || c.Preview.Port > 65535 {
		return errors.ConfigError("preview port out of range").WithContext("port", c.Preview.Port)
	}
	return nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath)
	}

	example := `# Bindery configuration
title: "My Book"
source: src
build: build
content_dir: EPUB

preview:
  port: 8080
  start_path: xhtml/

checker:
  command: epubcheck
`
	if err := os.WriteFile(configPath, []byte(example), 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "failed to write config file")
	}
	return nil
}
