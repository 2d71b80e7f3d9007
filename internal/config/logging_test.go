package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerTo_DualOutput(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := newLoggerTo(&stderr, &file, slog.LevelInfo)

	logger.Info("batch settled", "total", 5, "errors", 1)

	if !strings.Contains(stderr.String(), "batch settled") {
		t.Errorf("stderr output missing message: %q", stderr.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v\n%s", err, file.String())
	}
	if entry["msg"] != "batch settled" || entry["total"] != float64(5) {
		t.Errorf("file entry = %v", entry)
	}
}

func TestNewLoggerTo_LevelFilter(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := newLoggerTo(&stderr, &file, slog.LevelWarn)

	logger.Debug("noise")
	logger.Info("still noise")

	if stderr.Len() != 0 || file.Len() != 0 {
		t.Errorf("below-level records leaked: stderr=%q file=%q", stderr.String(), file.String())
	}

	logger.Warn("kept")
	if !strings.Contains(stderr.String(), "kept") {
		t.Error("warn record missing from stderr")
	}
}
