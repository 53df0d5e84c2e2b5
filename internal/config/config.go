// Package config loads tanda's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/faizmokh/tanda/internal/stampbook"
)

// Indent styles for exports.
const (
	IndentFullWidth = "fullwidth"
	IndentASCII     = "ascii"
)

// Config is the root configuration, stored in <base>/config.yaml.
type Config struct {
	LogLevel  slog.Level   `yaml:"log_level"`
	Session   string       `yaml:"session"`
	ShiftStep int          `yaml:"shift_step"`
	Export    ExportConfig `yaml:"export"`
}

// ExportConfig controls the human-readable export.
type ExportConfig struct {
	Header bool   `yaml:"header"`
	Indent string `yaml:"indent"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ShiftStep, validation.Required, validation.Min(1), validation.Max(3600)),
	); err != nil {
		return err
	}
	return c.Export.Validate()
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	// Empty means the default full-width marker.
	if c.Indent == "" {
		c.Indent = IndentFullWidth
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Indent, validation.In(IndentFullWidth, IndentASCII)),
	)
}

// Options converts the export settings for stampbook.Export.
func (c ExportConfig) Options() stampbook.ExportOptions {
	return stampbook.ExportOptions{
		Header:      c.Header,
		ASCIIIndent: c.Indent == IndentASCII,
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  slog.LevelWarn,
		Session:   "default",
		ShiftStep: 5,
		Export: ExportConfig{
			Header: true,
			Indent: IndentFullWidth,
		},
	}
}

// Load reads filename over the defaults, expanding $VARS first. A missing file
// is not an error when optional is set.
func Load(filename string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
