// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for the classgraph CLI.
type Config struct {
	// Workers caps scan concurrency. Zero picks a default from the
	// CPU count.
	Workers int `yaml:"workers"`

	// TempDir is where nested jars too large to hold in memory are
	// inflated. Empty means the system temp directory.
	TempDir string `yaml:"temp_dir"`

	// JavaHome locates the JRE whose runtime jars and version inform
	// the scan. Empty means detect from the environment.
	JavaHome string `yaml:"java_home"`

	// LogLevel is the minimum level logged: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Output configures how scan results are written.
	Output OutputConfig `yaml:"output"`
}

// OutputConfig configures result encoding.
type OutputConfig struct {
	// Format selects the result encoding: text, json, or cbor.
	Format string `yaml:"format"`

	// Compress selects snapshot compression: none, zstd, or lz4.
	// Applies to snapshot files only; stdout output is never
	// compressed.
	Compress string `yaml:"compress"`
}

// Default returns the default configuration. These defaults are a
// complete working configuration: the config file is optional for the
// classgraph CLI, unlike flags, which always apply.
func Default() *Config {
	return &Config{
		Workers:  0,
		TempDir:  "",
		JavaHome: "",
		LogLevel: "info",
		Output: OutputConfig{
			Format:   "text",
			Compress: "none",
		},
	}
}

// Load loads configuration from the CLASSGRAPH_CONFIG environment
// variable.
//
// There are no fallbacks and no automatic discovery: if
// CLASSGRAPH_CONFIG is not set, this fails. Callers that accept a
// --config flag should call LoadFile directly.
func Load() (*Config, error) {
	configPath := os.Getenv("CLASSGRAPH_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("CLASSGRAPH_CONFIG environment variable not set; " +
			"set it to the path of your classgraph.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the
// current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":      os.Getenv("HOME"),
		"JAVA_HOME": os.Getenv("JAVA_HOME"),
	}

	c.TempDir = expandVars(c.TempDir, vars)
	c.JavaHome = expandVars(c.JavaHome, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}

	logLevels := []string{"debug", "info", "warn", "error"}
	if !contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of: %v", logLevels))
	}

	formats := []string{"text", "json", "cbor"}
	if !contains(formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format must be one of: %v", formats))
	}

	compressions := []string{"none", "zstd", "lz4"}
	if !contains(compressions, c.Output.Compress) {
		errs = append(errs, fmt.Errorf("output.compress must be one of: %v", compressions))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel maps the configured log level onto its slog constant.
// Values Validate would reject fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EnsureTempDir creates the configured temp directory if one is set.
func (c *Config) EnsureTempDir() error {
	if c.TempDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.TempDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.TempDir, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
