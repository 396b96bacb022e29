package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redub/internal/config"
)

// credentialEnv lists the variables config.Load consults for missing keys.
// Tests start with them cleared so a developer's shell cannot leak in.
var credentialEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"}

// ConfigOption adjusts the config built by NewConfig.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t    testing.TB
	base string
	cfg  config.Config
}

// NewConfig returns a validated-shape config rooted in a fresh temp dir:
// state and logs live under it, the translation key is "test" and no .env
// file is read.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	for _, key := range credentialEnv {
		t.Setenv(key, "")
	}

	b := &configBuilder{t: t, base: t.TempDir(), cfg: config.Default()}
	b.cfg.Paths.StateDir = b.path("state")
	b.cfg.Paths.LogDir = b.path("logs")
	b.cfg.Paths.EnvFile = ""
	b.cfg.Translation.APIKey = "test"
	b.cfg.Logging.Level = "debug"

	for _, opt := range opts {
		opt(b)
	}
	b.mkdir(b.cfg.Paths.StateDir)
	b.mkdir(b.cfg.Paths.LogDir)
	return &b.cfg
}

func (b *configBuilder) path(elem ...string) string {
	return filepath.Join(append([]string{b.base}, elem...)...)
}

func (b *configBuilder) mkdir(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("mkdir %s: %v", dir, err)
	}
}

// WithWorkRoot gives every run its own work dir under <base>/work instead of
// the dubbing_temp dir beside the video.
func WithWorkRoot() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.WorkRoot = b.path("work")
		b.mkdir(b.cfg.Paths.WorkRoot)
	}
}

func WithTranslationKey(key string) ConfigOption {
	return func(b *configBuilder) { b.cfg.Translation.APIKey = key }
}

// WithOpenAIEngines routes transcription and synthesis through the OpenAI
// API at baseURL.
func WithOpenAIEngines(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Engine = config.EngineOpenAI
		b.cfg.Synthesis.Engine = config.EngineOpenAI
		b.cfg.OpenAI.APIKey = "test"
		b.cfg.OpenAI.BaseURL = strings.TrimSpace(baseURL)
	}
}

func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) { b.cfg.Notifications.NtfyTopic = url }
}

// WithStubbedBinaries puts no-op executables first on PATH. With no names it
// stubs the tools a full dub needs.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "python3", "edge-tts"}
		}
		binDir := b.path("bin")
		b.mkdir(binDir)
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp dir backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
