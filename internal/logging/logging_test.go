package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"oracle/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_Fallback(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "warn"}, &buf, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "path", "a.txt")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "path=a.txt") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestNew_DailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	day := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	logger, closer, err := New(config.LoggingConfig{Level: "info", Dir: dir}, nil, day)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("indexing complete", "chunks", 3)
	closer.Close()

	data, err := os.ReadFile(filepath.Join(dir, "oracle_20240309.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "chunks=3") {
		t.Errorf("expected log line in file, got %q", data)
	}
}
