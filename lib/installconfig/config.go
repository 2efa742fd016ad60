// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package installconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Environment identifies the kind of machine forge is installed on.
// It selects which override section of the config file applies.
type Environment string

const (
	// Development is for local developer workstations.
	Development Environment = "development"
	// CI is for continuous-integration build workers.
	CI Environment = "ci"
	// Production is for release build farms.
	Production Environment = "production"
)

// Config is the installation-wide defaults loaded once per process.
type Config struct {
	// Environment selects which override section below applies.
	Environment Environment `yaml:"environment"`

	// OutputUserRoot is the default parent directory for a user's
	// output trees, used when --output_user_root is not given on the
	// command line.
	OutputUserRoot string `yaml:"output_user_root"`

	// InstallBase is the default install base directory. InitDefaults
	// uses it ahead of the argv0-derived default, which applies only
	// when this is empty; --install_base on the command line overrides
	// both.
	InstallBase string `yaml:"install_base"`

	// EmbeddedToolBundlePath is the filesystem path to the
	// zstd-compressed tar archive of embedded tools. It is loaded and
	// validated with the rest of the file; nothing in forge opens the
	// archive from this path.
	EmbeddedToolBundlePath string `yaml:"embedded_tool_bundle_path"`

	// CI and Production contain per-environment overrides applied
	// after the base config is loaded.
	CI         *ConfigOverrides `yaml:"ci,omitempty"`
	Production *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	OutputUserRoot         string `yaml:"output_user_root,omitempty"`
	InstallBase            string `yaml:"install_base,omitempty"`
	EmbeddedToolBundlePath string `yaml:"embedded_tool_bundle_path,omitempty"`
}

// Default returns the installation defaults for a development
// machine. These exist primarily to give every field a sensible
// zero-value before a config file is loaded, not as a substitute for
// one — Load requires FORGE_INSTALL_CONFIG to be set.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment:            Development,
		OutputUserRoot:         filepath.Join(homeDir, ".cache", "forge"),
		InstallBase:            "",
		EmbeddedToolBundlePath: "",
	}
}

// Load loads configuration from the path named by the
// FORGE_INSTALL_CONFIG environment variable.
//
// There is no fallback: if FORGE_INSTALL_CONFIG is unset, Load fails.
// Callers that want to run with nothing but [Default] should call
// Default directly instead of Load.
func Load() (*Config, error) {
	path := os.Getenv("FORGE_INSTALL_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("FORGE_INSTALL_CONFIG environment variable not set; " +
			"set it to the path of your install-config.yaml file")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, applies
// the environment override section that matches Config.Environment,
// and expands ${VAR} path placeholders.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case CI:
		overrides = c.CI
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}
	if overrides.OutputUserRoot != "" {
		c.OutputUserRoot = overrides.OutputUserRoot
	}
	if overrides.InstallBase != "" {
		c.InstallBase = overrides.InstallBase
	}
	if overrides.EmbeddedToolBundlePath != "" {
		c.EmbeddedToolBundlePath = overrides.EmbeddedToolBundlePath
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.OutputUserRoot = expandVars(c.OutputUserRoot, vars)
	c.InstallBase = expandVars(c.InstallBase, vars)
	c.EmbeddedToolBundlePath = expandVars(c.EmbeddedToolBundlePath, vars)
}

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

	if c.Environment != Development && c.Environment != CI && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.OutputUserRoot == "" {
		errs = append(errs, fmt.Errorf("output_user_root is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
