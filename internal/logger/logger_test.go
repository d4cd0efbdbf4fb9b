package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{name: "console", format: "console", want: "organize run started"},
		{name: "json", format: "json", want: `"message":"organize run started"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "logs", "folder-tidy.log")
			log, err := New(Config{Level: "info", Format: tt.format, OutputPath: path})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			log.Info("organize run started")
			log.Debug("hidden at info level")
			_ = log.Sync()

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("os.ReadFile() error = %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("log output = %q, want containing %q", data, tt.want)
			}
			if strings.Contains(string(data), "hidden at info level") {
				t.Errorf("log output contains debug entry at info level: %q", data)
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("New(level=loud) error = nil, want error")
	}
}
