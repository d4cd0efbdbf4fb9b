package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Digital-Shane/folder-tidy/internal/config"
)

func TestSetConfigPersists(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	if err := setConfig(&out, "reserved_stem", "tidy"); err != nil {
		t.Fatalf("setConfig() error = %v", err)
	}
	if got, want := out.String(), "reserved_stem = tidy\n"; got != want {
		t.Errorf("setConfig() output = %q, want %q", got, want)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if cfg.ReservedStem != "tidy" {
		t.Errorf("ReservedStem = %q, want tidy", cfg.ReservedStem)
	}
}

func TestSetConfigRejectsInvalidValue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := setConfig(&bytes.Buffer{}, "log_format", "xml"); err == nil {
		t.Fatal("setConfig(log_format=xml) error = nil, want error")
	}
	path, err := config.ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("LogFormat = %q after rejected set, want console (file %s)", cfg.LogFormat, path)
	}
}

func TestSetConfigRepairsInvalidFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := config.ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("os.MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"log_level": "loud"}`), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	if _, err := config.Load(); err == nil {
		t.Fatal("config.Load() error = nil, want invalid log_level")
	}

	var out bytes.Buffer
	if err := setConfig(&out, "log_level", "INFO"); err != nil {
		t.Fatalf("setConfig() error = %v", err)
	}
	if got, want := out.String(), "log_level = info\n"; got != want {
		t.Errorf("setConfig() output = %q, want %q", got, want)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() after repair error = %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestPrintConfig(t *testing.T) {
	var out bytes.Buffer
	if err := printConfig(&out, config.DefaultConfig()); err != nil {
		t.Fatalf("printConfig() error = %v", err)
	}
	text := out.String()
	for _, key := range config.Keys() {
		if !strings.Contains(text, key) {
			t.Errorf("printConfig() missing key %q:\n%s", key, text)
		}
	}
	if !strings.Contains(text, "organize") {
		t.Errorf("printConfig() missing default reserved stem:\n%s", text)
	}
}
