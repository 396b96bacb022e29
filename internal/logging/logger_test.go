package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/services"
)

func TestConsoleLoggerFormatsComponentAndStage(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(services.WithRunID(context.Background(), "run-1"), "translate")
	component := logging.NewComponentLogger(logging.WithContext(ctx, logger), "translator")
	component.Info("request sent", logging.Int("segments", 3), logging.String("language", "Vietnamese"))
	component.Debug("hidden")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, fragment := range []string{"INFO [translate] translator: request sent", "segments=3", "language=Vietnamese", "run_id=run-1"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "logger_test.go:") {
		t.Fatalf("expected caller in debug output, got %q", data)
	}
}

func TestJSONLoggerUsesCompactKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("skipped", logging.String("path", "a b"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode json log: %v (%s)", err, data)
	}
	if payload["level"] != "warn" {
		t.Fatalf("unexpected level %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
	if payload["path"] != "a b" {
		t.Fatalf("unexpected path %v", payload["path"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "clip missing", "mix_clip_missing",
		logging.String(logging.FieldImpact, "segment is silent in the dub"),
	)
	logging.WarnWithContext(nil, "ignored", "noop")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, fragment := range []string{"event_type=mix_clip_missing", "error_hint=", `impact="segment is silent in the dub"`} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "redub.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestSpanAndErrorWithContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.Span("segment", 3, 12.5, 14),
		logging.String(logging.FieldErrorHint, "verify the TTS endpoint"),
	)
	logging.ErrorWithContext(nil, "ignored", "noop")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, fragment := range []string{
		"ERROR stage failed",
		"segment.index=3",
		"segment.start=12.5",
		"segment.end=14",
		"event_type=stage_failure",
		`error_hint="verify the TTS endpoint"`,
	} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Count(line, "error_hint=") != 1 {
		t.Fatalf("expected explicit hint to replace the default, got %q", line)
	}
}
