// Copyright 2026 RHSS Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Threshold != DefaultThreshold {
		t.Errorf("expected threshold=%d, got %d", DefaultThreshold, cfg.Threshold)
	}
	if cfg.Force {
		t.Error("expected force=false by default")
	}
	if cfg.Mode != "fuse" {
		t.Errorf("expected mode=fuse, got %s", cfg.Mode)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level=info, got %s", cfg.LogLevel)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rhss.yaml")

	content := `
threshold: 2097152
force: true
hidden_storage: true
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Threshold != 2097152 {
		t.Errorf("expected threshold=2097152, got %d", cfg.Threshold)
	}
	if !cfg.Force {
		t.Error("expected force=true")
	}
	if !cfg.HiddenStorage {
		t.Error("expected hidden_storage=true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level=debug, got %s", cfg.LogLevel)
	}
	// mode was not set in the file, so the default should survive.
	if cfg.Mode != "fuse" {
		t.Errorf("expected mode=fuse (default preserved), got %s", cfg.Mode)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFile_InvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rhss.yaml")
	if err := os.WriteFile(path, []byte("log_level: verbose\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error for invalid log_level")
	}
}

func TestValidate_EmptyMode(t *testing.T) {
	cfg := Default()
	cfg.Mode = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty mode")
	}
}
