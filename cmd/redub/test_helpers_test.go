package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"redub/internal/config"
	"redub/internal/dubbing"
	"redub/internal/session"
	"redub/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(homeDir, ".config", "redub", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seedSession stores an analyzed context whose work dir lives under the
// test base.
func seedSession(t *testing.T, env *cliTestEnv, workDir string, segments ...dubbing.Segment) *session.Session {
	t.Helper()
	if len(segments) == 0 {
		segments = []dubbing.Segment{
			{Start: 0.5, End: 2.0, Text: "Hello there"},
			{Start: 2.5, End: 4.0, Text: "General Kenobi"},
		}
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}
	store := testsupport.MustOpenStore(t, env.cfg)
	sess, err := store.Create(context.Background(), &dubbing.PipelineContext{
		Segments:            segments,
		WorkDir:             workDir,
		BackgroundAudioPath: filepath.Join(workDir, "separation", "no_vocals.wav"),
		VocalsAudioPath:     filepath.Join(workDir, "separation", "vocals.wav"),
		SourceVideoPath:     filepath.Join(env.baseDir, "clip.mp4"),
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return sess
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
