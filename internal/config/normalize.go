package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizeSeparation()
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeSynthesis()
	c.normalizeOpenAI()
	c.normalizeMixing()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkRoot, err = expandPath(strings.TrimSpace(c.Paths.WorkRoot)); err != nil {
		return fmt.Errorf("paths.work_root: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = orDefault(c.Media.FFmpegBinary, defaultFFmpegBinary)
	c.Media.FFprobeBinary = orDefault(c.Media.FFprobeBinary, defaultFFprobeBinary)
}

func (c *Config) normalizeSeparation() {
	c.Separation.Python = orDefault(c.Separation.Python, defaultPython)
	c.Separation.Model = orDefault(c.Separation.Model, defaultSeparationModel)
	c.Separation.Device = strings.ToLower(strings.TrimSpace(c.Separation.Device))
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Engine = strings.ToLower(orDefault(c.Transcription.Engine, defaultTranscriptionEngine))
	c.Transcription.Python = orDefault(c.Transcription.Python, defaultPython)
	c.Transcription.Model = orDefault(c.Transcription.Model, defaultWhisperModel)
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
}

func (c *Config) normalizeTranslation() {
	c.Translation.Provider = strings.ToLower(orDefault(c.Translation.Provider, defaultTranslationProvider))
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	if c.Translation.APIKey == "" {
		var keys []string
		switch c.Translation.Provider {
		case ProviderGemini:
			keys = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
		case ProviderOpenAI:
			keys = []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY"}
		}
		c.Translation.APIKey = lookupEnv(keys...)
	}
	switch c.Translation.Provider {
	case ProviderGemini:
		c.Translation.BaseURL = orDefault(c.Translation.BaseURL, defaultGeminiBaseURL)
		c.Translation.Model = orDefault(c.Translation.Model, defaultGeminiModel)
	case ProviderOpenAI:
		c.Translation.BaseURL = orDefault(c.Translation.BaseURL, defaultOpenAIChatURL)
		c.Translation.Model = orDefault(c.Translation.Model, defaultOpenAIChatModel)
	}
	c.Translation.TargetLanguage = orDefault(c.Translation.TargetLanguage, defaultTargetLanguage)
	if c.Translation.MaxAttempts == 0 {
		c.Translation.MaxAttempts = defaultTranslationAttempts
	}
}

func (c *Config) normalizeSynthesis() {
	c.Synthesis.Engine = strings.ToLower(orDefault(c.Synthesis.Engine, defaultSynthesisEngine))
	c.Synthesis.EdgeTTSBinary = orDefault(c.Synthesis.EdgeTTSBinary, defaultEdgeTTSBinary)
	c.Synthesis.Voice = orDefault(c.Synthesis.Voice, defaultVoice)
	c.Synthesis.Profile = strings.TrimSpace(c.Synthesis.Profile)
	c.Synthesis.Pitch = orDefault(c.Synthesis.Pitch, defaultPitch)
	c.Synthesis.Rate = orDefault(c.Synthesis.Rate, defaultRate)
	c.Synthesis.OpenAIModel = orDefault(c.Synthesis.OpenAIModel, defaultOpenAISpeechModel)
	c.Synthesis.OpenAIVoice = strings.ToLower(orDefault(c.Synthesis.OpenAIVoice, defaultOpenAISpeechVoice))
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = lookupEnv("OPENAI_API_KEY")
	}
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
}

func (c *Config) normalizeMixing() {
	c.Mixing.OutputFormat = strings.ToLower(strings.TrimPrefix(orDefault(c.Mixing.OutputFormat, defaultMixOutputFormat), "."))
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, defaultLogLevel))
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func lookupEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
