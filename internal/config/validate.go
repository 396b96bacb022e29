package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	pitchPattern = regexp.MustCompile(`^[+-]\d+Hz$`)
	ratePattern  = regexp.MustCompile(`^[+-]\d+%$`)
)

// Validate ensures the configuration is usable. Credentials for remote
// engines are checked separately by ValidateAnalyze and ValidateFinish.
func (c *Config) Validate() error {
	if err := c.validateEngines(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateMixing(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateAnalyze confirms the credentials required by the analyze phase.
func (c *Config) ValidateAnalyze() error {
	if c.Transcription.Engine == EngineOpenAI && c.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required when transcription.engine is \"openai\" (or set OPENAI_API_KEY)")
	}
	return nil
}

// ValidateFinish confirms the credentials required by the finish phase.
func (c *Config) ValidateFinish() error {
	if c.Translation.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/redub/config.toml"
		}
		env := "GEMINI_API_KEY"
		if c.Translation.Provider == ProviderOpenAI {
			env = "OPENAI_API_KEY"
		}
		return fmt.Errorf("translation.api_key is required. Set %s or edit %s (create with 'redub config init')", env, defaultPath)
	}
	if c.Synthesis.Engine == EngineOpenAI && c.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required when synthesis.engine is \"openai\" (or set OPENAI_API_KEY)")
	}
	return nil
}

func (c *Config) validateEngines() error {
	switch c.Transcription.Engine {
	case EngineWhisper, EngineOpenAI:
	default:
		return fmt.Errorf("transcription.engine: unsupported value %q (want %q or %q)", c.Transcription.Engine, EngineWhisper, EngineOpenAI)
	}
	switch c.Synthesis.Engine {
	case EngineEdgeTTS, EngineOpenAI:
	default:
		return fmt.Errorf("synthesis.engine: unsupported value %q (want %q or %q)", c.Synthesis.Engine, EngineEdgeTTS, EngineOpenAI)
	}
	if c.Separation.TimeoutSeconds < 0 {
		return errors.New("separation.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("translation.provider: unsupported value %q (want %q or %q)", c.Translation.Provider, ProviderGemini, ProviderOpenAI)
	}
	return ensurePositiveMap(map[string]int{
		"translation.timeout_seconds": c.Translation.TimeoutSeconds,
		"translation.max_attempts":    c.Translation.MaxAttempts,
	})
}

func (c *Config) validateSynthesis() error {
	if c.Synthesis.Concurrency < 0 {
		return errors.New("synthesis.concurrency must be >= 0 (0 means unbounded)")
	}
	if !pitchPattern.MatchString(c.Synthesis.Pitch) {
		return fmt.Errorf("synthesis.pitch: %q must look like +0Hz or -20Hz", c.Synthesis.Pitch)
	}
	if !ratePattern.MatchString(c.Synthesis.Rate) {
		return fmt.Errorf("synthesis.rate: %q must look like +0%% or -5%%", c.Synthesis.Rate)
	}
	return nil
}

func (c *Config) validateMixing() error {
	if err := ensurePositiveMap(map[string]int{
		"mixing.sample_rate": c.Mixing.SampleRate,
		"mixing.channels":    c.Mixing.Channels,
	}); err != nil {
		return err
	}
	if c.Mixing.Channels > 2 {
		return errors.New("mixing.channels must be 1 or 2")
	}
	switch c.Mixing.OutputFormat {
	case "mp3", "wav", "ogg", "flac":
	default:
		return fmt.Errorf("mixing.output_format: unsupported value %q", c.Mixing.OutputFormat)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
