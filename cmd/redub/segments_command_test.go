package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/dubbing"
	"redub/internal/services"
)

func TestSegmentsShow(t *testing.T) {
	env := setupCLITestEnv(t)
	sess := seedSession(t, env, filepath.Join(env.baseDir, "work"))

	out, _, err := runCLI(t, []string{"segments", "show", sess.ID}, env.configPath)
	if err != nil {
		t.Fatalf("segments show: %v", err)
	}
	requireContains(t, out, "Hello there")
	requireContains(t, out, "00:02.500")

	out, _, err = runCLI(t, []string{"--json", "segments", "show", sess.ID}, env.configPath)
	if err != nil {
		t.Fatalf("segments show --json: %v", err)
	}
	var segments []dubbing.Segment
	if err := json.Unmarshal([]byte(out), &segments); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(segments) != 2 || segments[1].Text != "General Kenobi" {
		t.Fatalf("unexpected segments: %+v", segments)
	}
}

func TestSegmentsExportFormats(t *testing.T) {
	env := setupCLITestEnv(t)
	sess := seedSession(t, env, filepath.Join(env.baseDir, "work"))

	out, _, err := runCLI(t, []string{"segments", "export", sess.ID}, env.configPath)
	if err != nil {
		t.Fatalf("segments export: %v", err)
	}
	if !strings.HasPrefix(out, "start,end,text\n") {
		t.Fatalf("expected csv header, got %q", out)
	}
	requireContains(t, out, "0.500,2.000,Hello there")

	srtPath := filepath.Join(env.baseDir, "out", "subs.srt")
	if _, _, err := runCLI(t, []string{"segments", "export", sess.ID, "--output", srtPath}, env.configPath); err != nil {
		t.Fatalf("segments export srt: %v", err)
	}
	data, err := os.ReadFile(srtPath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	requireContains(t, string(data), "00:00:00,500 --> 00:00:02,000")

	if _, _, err := runCLI(t, []string{"segments", "export", sess.ID, "--format", "xml"}, env.configPath); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestSegmentsImportReplacesTranscript(t *testing.T) {
	env := setupCLITestEnv(t)
	sess := seedSession(t, env, filepath.Join(env.baseDir, "work"))

	edited := filepath.Join(env.baseDir, "edited.csv")
	content := "start,end,text\n0.5,2.0,Hello there friend\n2.5,3.5,Kenobi\n4.0,5.0,A new line\n"
	if err := os.WriteFile(edited, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out, _, err := runCLI(t, []string{"segments", "import", sess.ID, edited}, env.configPath)
	if err != nil {
		t.Fatalf("segments import: %v", err)
	}
	requireContains(t, out, "now has 3 segments")

	out, _, err = runCLI(t, []string{"--json", "segments", "show", sess.ID}, env.configPath)
	if err != nil {
		t.Fatalf("segments show: %v", err)
	}
	var segments []dubbing.Segment
	if err := json.Unmarshal([]byte(out), &segments); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(segments) != 3 || segments[0].Text != "Hello there friend" || segments[1].End != 3.5 {
		t.Fatalf("unexpected segments after import: %+v", segments)
	}
}

func TestSegmentsImportRejectsBadTiming(t *testing.T) {
	env := setupCLITestEnv(t)
	sess := seedSession(t, env, filepath.Join(env.baseDir, "work"))

	edited := filepath.Join(env.baseDir, "bad.csv")
	if err := os.WriteFile(edited, []byte("3.0,2.0,backwards\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	_, _, err := runCLI(t, []string{"segments", "import", sess.ID, edited}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		explicit string
		dest     string
		want     string
		wantErr  bool
	}{
		{dest: "", want: formatCSV},
		{dest: "segments.SRT", want: formatSRT},
		{dest: "segments.json", want: formatJSON},
		{explicit: "srt", dest: "segments.csv", want: formatSRT},
		{dest: "segments.txt", wantErr: true},
	}
	for _, tt := range tests {
		got, err := exportFormat(tt.explicit, tt.dest)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("exportFormat(%q, %q) expected error", tt.explicit, tt.dest)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("exportFormat(%q, %q) = %q, %v; want %q", tt.explicit, tt.dest, got, err, tt.want)
		}
	}
}
