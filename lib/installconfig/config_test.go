// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package installconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Environment != Development {
		t.Errorf("Environment = %s, want %s", cfg.Environment, Development)
	}
	if cfg.OutputUserRoot == "" {
		t.Error("OutputUserRoot should have a non-empty default")
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	original := os.Getenv("FORGE_INSTALL_CONFIG")
	defer os.Setenv("FORGE_INSTALL_CONFIG", original)
	os.Unsetenv("FORGE_INSTALL_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when FORGE_INSTALL_CONFIG is unset")
	}
}

func TestLoad_WithEnvVar(t *testing.T) {
	original := os.Getenv("FORGE_INSTALL_CONFIG")
	defer os.Setenv("FORGE_INSTALL_CONFIG", original)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "install-config.yaml")
	content := `
environment: ci
output_user_root: /test/root
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	os.Setenv("FORGE_INSTALL_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != CI {
		t.Errorf("Environment = %s, want %s", cfg.Environment, CI)
	}
	if cfg.OutputUserRoot != "/test/root" {
		t.Errorf("OutputUserRoot = %s, want /test/root", cfg.OutputUserRoot)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "install-config.yaml")
	content := `
environment: development
output_user_root: /custom/root
install_base: /custom/install
embedded_tool_bundle_path: /custom/tools.tar.zst
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.OutputUserRoot != "/custom/root" {
		t.Errorf("OutputUserRoot = %s, want /custom/root", cfg.OutputUserRoot)
	}
	if cfg.InstallBase != "/custom/install" {
		t.Errorf("InstallBase = %s, want /custom/install", cfg.InstallBase)
	}
	if cfg.EmbeddedToolBundlePath != "/custom/tools.tar.zst" {
		t.Errorf("EmbeddedToolBundlePath = %s, want /custom/tools.tar.zst", cfg.EmbeddedToolBundlePath)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "install-config.yaml")
	content := `
environment: production
output_user_root: /default/root
production:
  output_user_root: /prod/root
  install_base: /prod/install
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.OutputUserRoot != "/prod/root" {
		t.Errorf("OutputUserRoot = %s, want /prod/root (production override)", cfg.OutputUserRoot)
	}
	if cfg.InstallBase != "/prod/install" {
		t.Errorf("InstallBase = %s, want /prod/install (production override)", cfg.InstallBase)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{"${HOME}/forge", map[string]string{"HOME": "/home/user"}, "/home/user/forge"},
		{"${MISSING:-default}", map[string]string{}, "default"},
		{"${PRESENT:-default}", map[string]string{"PRESENT": "value"}, "value"},
		{"no variables here", map[string]string{}, "no variables here"},
	}

	for _, test := range tests {
		if got := expandVars(test.input, test.vars); got != test.expected {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"invalid environment", func(c *Config) { c.Environment = "invalid" }, true},
		{"empty output root", func(c *Config) { c.OutputUserRoot = "" }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}
