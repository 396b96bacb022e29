package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing binary, got %#v", missing)
	}
}

func TestCheckPythonModules(t *testing.T) {
	var calls []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, name+" "+strings.Join(args, " "))
		if strings.Contains(args[1], "whisper") {
			return []byte("Traceback\nModuleNotFoundError: No module named 'whisper'\n"), errors.New("exit status 1")
		}
		return nil, nil
	}
	results := CheckPythonModules(context.Background(), []PythonModule{
		{Name: "demucs", Python: "python3", Module: "demucs"},
		{Name: "whisper", Python: "python3", Module: "whisper"},
		{Name: "none", Python: ""},
	}, run)

	if len(calls) != 2 {
		t.Fatalf("expected two interpreter calls, got %v", calls)
	}
	if !results[0].Available {
		t.Fatalf("expected demucs available: %#v", results[0])
	}
	if results[1].Available || !strings.Contains(results[1].Detail, "No module named 'whisper'") {
		t.Fatalf("expected whisper failure detail, got %#v", results[1])
	}
	if results[2].Available || results[2].Detail != "python interpreter not configured" {
		t.Fatalf("unexpected status for unset interpreter: %#v", results[2])
	}
}

func TestFailureDetailCarriesInstallHint(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "edge-tts", Command: "redub-no-such-tts", Hint: "pip install edge-tts"}})
	if !strings.HasSuffix(results[0].Detail, "(pip install edge-tts)") {
		t.Fatalf("expected install hint in detail, got %q", results[0].Detail)
	}

	run := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("No module named 'demucs'"), errors.New("exit status 1")
	}
	modules := CheckPythonModules(context.Background(), []PythonModule{{Name: "demucs", Python: "python3", Module: "demucs", Hint: "pip install demucs"}}, run)
	if !strings.Contains(modules[0].Detail, "(pip install demucs)") {
		t.Fatalf("expected install hint in module detail, got %q", modules[0].Detail)
	}
}
