// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultThreshold is the byte boundary separating the hot tier from
// the cold tier when neither --threshold nor a config file overrides
// it: 1 MiB.
const DefaultThreshold = 1 << 20

// Config holds the defaults loaded from an optional --config file.
// Every field mirrors a CLI flag; an explicitly-set flag always wins
// over the corresponding config value, so the file only ever supplies
// defaults for flags the caller omitted.
type Config struct {
	// Threshold is the byte boundary separating hot from cold.
	Threshold uint64 `yaml:"threshold"`

	// Force ignores stale (or live, if also set) storage locks on
	// startup instead of failing with StorageLocked.
	Force bool `yaml:"force"`

	// HiddenStorage enables the hidden-storage redirector.
	HiddenStorage bool `yaml:"hidden_storage"`

	// Mode selects the kernel-facing transport backend. Opaque to the
	// core; "fuse" is the only implemented value.
	Mode string `yaml:"mode"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in RHSS defaults, used to seed a Config
// before a file (if any) is loaded on top of it.
func Default() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Force:     false,
		Mode:      "fuse",
		LogLevel:  "info",
	}
}

// LoadFile loads configuration from a specific YAML file path, starting
// from [Default] and overlaying any fields present in the file. The
// file is the single source of truth for the fields it sets — there is
// no environment-variable or discovery fallback.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.Mode == "" {
		return fmt.Errorf("mode must not be empty")
	}
	return nil
}
