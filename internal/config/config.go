// Package config loads the command-line tool's YAML settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds tool settings. Zero fields in a file keep their defaults.
type Config struct {
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`    // text or json
	Strict       bool   `yaml:"strict"`        // Treat warnings as failures in validate
	OutputFormat string `yaml:"output_format"` // json, yaml or msgpack
	BaseDir      string `yaml:"base_dir"`      // Base directory for maps read from stdin
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		OutputFormat: "json",
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads YAML settings from r over the defaults.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	switch strings.ToLower(c.OutputFormat) {
	case "json", "yaml", "msgpack":
	default:
		return fmt.Errorf("unknown output_format %q", c.OutputFormat)
	}
	return nil
}
