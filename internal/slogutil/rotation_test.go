package slogutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bazi/internal/config"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100B", 100},
		{"100b", 100},
		{"1KB", 1024},
		{"1kb", 1024},
		{"10KB", 10240},
		{"1MB", 1024 * 1024},
		{"10MB", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseSize(tt.input)
			if result != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRotatingFile_Write(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	// Create rotating file with 100 byte max size and 2 backups
	rf, err := OpenRotatingFile(path, 100, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	defer rf.Close()

	// Write some data
	data := []byte("hello world\n")
	for i := 0; i < 5; i++ {
		_, err := rf.Write(data)
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("Log file should exist")
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	// Create rotating file with 50 byte max size and 2 backups
	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	// Write enough data to trigger rotation
	data := make([]byte, 30)
	for i := range data {
		data[i] = 'a'
	}
	data[len(data)-1] = '\n'

	// Write multiple times to trigger rotation
	for i := 0; i < 5; i++ {
		_, err := rf.Write(data)
		if err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	rf.Close()

	// Check that backup files exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("Main log file should exist")
	}
	if _, err := os.Stat(path + ".1"); os.IsNotExist(err) {
		t.Error("Backup .1 should exist")
	}
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "bazi.log")

	var console strings.Builder
	level := new(slog.LevelVar)
	logger, closer, err := FromConfig(config.LoggingConfig{
		Level:      "info",
		Format:     "text",
		File:       path,
		MaxSize:    "1MB",
		MaxBackups: 2,
	}, &console, level)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("chart computed", "dayMaster", "庚")
	level.Set(slog.LevelDebug)
	logger.Debug("now visible")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, out := range []string{console.String(), string(data)} {
		if strings.Contains(out, "hidden") {
			t.Errorf("debug line written before level change: %s", out)
		}
		if !strings.Contains(out, "dayMaster=庚") || !strings.Contains(out, "now visible") {
			t.Errorf("missing lines in %q", out)
		}
	}
}

func TestFromConfigJSONWithoutFile(t *testing.T) {
	var console strings.Builder
	logger, closer, err := FromConfig(config.LoggingConfig{Level: "warn", Format: "json"}, &console, new(slog.LevelVar))
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if closer != nil {
		t.Error("closer should be nil without a log file")
	}
	logger.Warn("slow search", "years", 120)
	if !strings.Contains(console.String(), `"msg":"slow search"`) {
		t.Errorf("console = %s, want JSON line", console.String())
	}
}
