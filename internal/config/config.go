package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// WorkRoot hosts per-run working directories. When empty each run uses
	// a dubbing_temp directory next to the source video.
	WorkRoot string `toml:"work_root"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
	EnvFile  string `toml:"env_file"`
}

// Media names the ffmpeg tool binaries.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Separation configures the demucs subprocess.
type Separation struct {
	Python         string `toml:"python"`
	Model          string `toml:"model"`
	Device         string `toml:"device"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription selects and configures the speech recognition engine.
type Transcription struct {
	Engine   string `toml:"engine"`
	Python   string `toml:"python"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
	Device   string `toml:"device"`
}

// Translation configures the remote text-generation engine.
type Translation struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TargetLanguage string `toml:"target_language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
	// StrictCount turns a reply count mismatch into a hard failure instead
	// of mapping the overlapping prefix.
	StrictCount bool `toml:"strict_count"`
}

// Synthesis configures the text-to-speech engine and the default voice.
type Synthesis struct {
	Engine        string `toml:"engine"`
	EdgeTTSBinary string `toml:"edge_tts_binary"`
	Voice         string `toml:"voice"`
	Profile       string `toml:"profile"`
	Pitch         string `toml:"pitch"`
	Rate          string `toml:"rate"`
	Concurrency   int    `toml:"concurrency"`
	OpenAIModel   string `toml:"openai_model"`
	OpenAIVoice   string `toml:"openai_voice"`
}

// OpenAI holds credentials for the OpenAI audio endpoints.
type OpenAI struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Mixing configures the timed audio mixer.
type Mixing struct {
	SampleRate       int     `toml:"sample_rate"`
	Channels         int     `toml:"channels"`
	BackgroundGainDB float64 `toml:"background_gain_db"`
	OutputFormat     string  `toml:"output_format"`
}

// Muxing configures the final video encode.
type Muxing struct {
	VideoCodec   string `toml:"video_codec"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications configures ntfy alerts for finished or failed dubs.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for redub.
//
// Configuration sections by subsystem:
//   - Paths: work, log and state directories plus the dotenv file
//   - Media: ffmpeg/ffprobe binaries
//   - Separation: demucs interpreter, model and device
//   - Transcription: whisper worker or OpenAI transcription
//   - Translation: Gemini or OpenAI-compatible chat completion
//   - Synthesis: edge-tts or OpenAI speech, default voice profile
//   - OpenAI: shared credentials for the OpenAI audio engines
//   - Mixing: PCM mix format and encoded output format
//   - Muxing: video/audio codecs for the dubbed video
//   - Notifications: optional ntfy topic for completion alerts
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Media         Media         `toml:"media"`
	Separation    Separation    `toml:"separation"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Synthesis     Synthesis     `toml:"synthesis"`
	OpenAI        OpenAI        `toml:"openai"`
	Mixing        Mixing        `toml:"mixing"`
	Muxing        Muxing        `toml:"muxing"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/redub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadEnvFile(cfg.Paths.EnvFile); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("redub.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// loadEnvFile populates unset environment variables from a dotenv file.
// A missing file is not an error.
func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %s: %w", expanded, err)
	}
	return nil
}

// EnsureDirectories creates the log and state directories, plus the work
// root when one is configured.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.StateDir}
	if c.Paths.WorkRoot != "" {
		dirs = append(dirs, c.Paths.WorkRoot)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionDatabasePath returns the location of the paused-session store.
func (c *Config) SessionDatabasePath() string {
	return filepath.Join(c.Paths.StateDir, defaultSessionDatabaseName)
}

// WorkDirFor returns the private working directory of one run over
// videoPath: <work_root>/<stem>-<run id prefix>, or the same name under
// dubbing_temp beside the video when no work root is set.
func (c *Config) WorkDirFor(videoPath, runID string) string {
	root := c.Paths.WorkRoot
	if root == "" {
		root = filepath.Join(filepath.Dir(videoPath), defaultWorkDirName)
	}
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	if runID = strings.TrimSpace(runID); runID != "" {
		if len(runID) > 8 {
			runID = runID[:8]
		}
		base = base + "-" + runID
	}
	return filepath.Join(root, base)
}

// LLMConfig contains the connection settings for the translation engine.
type LLMConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
	MaxAttempts    int
}

// TranslationLLM returns the resolved translation engine settings.
func (c *Config) TranslationLLM() LLMConfig {
	return LLMConfig{
		Provider:       c.Translation.Provider,
		APIKey:         strings.TrimSpace(c.Translation.APIKey),
		BaseURL:        strings.TrimSpace(c.Translation.BaseURL),
		Model:          strings.TrimSpace(c.Translation.Model),
		TimeoutSeconds: c.Translation.TimeoutSeconds,
		MaxAttempts:    c.Translation.MaxAttempts,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
