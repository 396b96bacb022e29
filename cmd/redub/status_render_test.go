package main

import (
	"fmt"
	"strings"
	"testing"

	"redub/internal/deps"
	"redub/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "binary not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] binary not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "/usr/bin/ffmpeg", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyStatusLine(t *testing.T) {
	tests := []struct {
		status deps.Status
		want   string
	}{
		{deps.Status{Name: "FFmpeg", Command: "/usr/bin/ffmpeg", Available: true}, "[OK] /usr/bin/ffmpeg"},
		{deps.Status{Name: "whisper", Optional: true, Detail: "not importable"}, "[WARN] not importable"},
		{deps.Status{Name: "demucs", Detail: "not importable"}, "[ERROR] not importable"},
	}
	for _, tt := range tests {
		got := dependencyStatusLine(tt.status, false)
		if !strings.Contains(got, tt.want) || !strings.Contains(got, tt.status.Name+":") {
			t.Fatalf("dependencyStatusLine(%+v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestPreflightStatusLine(t *testing.T) {
	ok := preflightStatusLine(preflight.Result{Name: "State directory", Passed: true, Detail: "/tmp (read/write ok)"}, false)
	requireContains(t, ok, "[OK]")
	failed := preflightStatusLine(preflight.Result{Name: "Translation LLM", Detail: "API key missing"}, false)
	requireContains(t, failed, "[ERROR] API key missing")
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader(" Environment ", false)
	if len(lines) != 2 || lines[0] != "== Environment ==" || len(lines[1]) != len(lines[0]) {
		t.Fatalf("unexpected header %q", lines)
	}
}

func TestFormatClockAndTruncate(t *testing.T) {
	if got := formatClock(62.5); got != "01:02.500" {
		t.Fatalf("formatClock(62.5) = %q", got)
	}
	if got := formatClock(3723.25); got != "1:02:03.250" {
		t.Fatalf("formatClock(3723.25) = %q", got)
	}
	if got := truncate("one  two\nthree", 20); got != "one two three" {
		t.Fatalf("truncate collapsed whitespace = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("truncate = %q", got)
	}
}
