package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewOutputs(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"stderr text", Config{Level: "info", Output: "stderr", Format: "text"}},
		{"stdout json", Config{Level: "debug", Output: "stdout", Format: "json"}},
		{"discard", Config{Output: "discard"}},
		{"unopenable file falls back", Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if log := New(tt.config); log == nil {
				t.Error("New() returned nil")
			}
		})
	}
}

func TestLogToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "wincsv.log")

	log := New(Config{Level: "debug", Output: logFile, Format: "text"})
	log.Debug("window mapped", "base", 0)
	log.Info("reader opened", "path", "/data/a.csv")
	log.Warn("file was truncated")
	log.Error("record read failed")

	data, err := os.ReadFile(logFile) // nolint:gosec
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	content := string(data)
	for _, want := range []string{"window mapped", "reader opened", "path=/data/a.csv", "file was truncated", "record read failed"} {
		if !strings.Contains(content, want) {
			t.Errorf("log file missing %q:\n%s", want, content)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "text")

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	content := buf.String()
	if strings.Contains(content, "debug message") || strings.Contains(content, "info message") {
		t.Errorf("messages below warn were written:\n%s", content)
	}
	if !strings.Contains(content, "warn message") || !strings.Contains(content, "error message") {
		t.Errorf("messages at or above warn missing:\n%s", content)
	}
}

func TestJSONWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "JSON").With("component", "follow")

	log.Info("records emitted", "count", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "records emitted" {
		t.Errorf("msg = %v, want records emitted", entry["msg"])
	}
	if entry["component"] != "follow" {
		t.Errorf("component = %v, want follow", entry["component"])
	}
	if entry["count"] != float64(3) {
		t.Errorf("count = %v, want 3", entry["count"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "INFO"} {
		if !ValidLevel(level) {
			t.Errorf("ValidLevel(%q) = false, want true", level)
		}
	}
	for _, level := range []string{"", "trace", "fatal"} {
		if ValidLevel(level) {
			t.Errorf("ValidLevel(%q) = true, want false", level)
		}
	}
}

func TestNoop(t *testing.T) {
	log := Noop()
	log.Error("dropped")
	log.With("k", "v").Info("dropped")
}
