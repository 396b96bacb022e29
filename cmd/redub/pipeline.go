package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"redub/internal/config"
	"redub/internal/dubbing"
	"redub/internal/logging"
	"redub/internal/media/ffprobe"
	"redub/internal/mixer"
	"redub/internal/muxer"
	"redub/internal/separation"
	"redub/internal/services/llm"
	"redub/internal/soundtrack"
	"redub/internal/synthesis"
	"redub/internal/transcription"
	"redub/internal/translation"
	"redub/internal/voices"
)

type separatorAdapter struct {
	sep *separation.Separator
}

func (a separatorAdapter) Separate(ctx context.Context, audioPath, outputDir string) (string, string, error) {
	stems, err := a.sep.Separate(ctx, audioPath, outputDir)
	if err != nil {
		return "", "", err
	}
	return stems.Vocals, stems.Background, nil
}

type mixerAdapter struct {
	mix *mixer.Mixer
}

func (a mixerAdapter) Mix(ctx context.Context, backgroundPath string, segments []dubbing.Segment, destPath string) (string, error) {
	result, err := a.mix.Mix(ctx, backgroundPath, segments, destPath)
	if err != nil {
		return "", err
	}
	return result.OutputPath, nil
}

// buildPipeline wires the configured engines. The returned func releases
// long-lived workers and must be called when the pipeline is done.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*dubbing.Pipeline, func() error, error) {
	probe := ffprobe.New(cfg.Media.FFprobeBinary)
	extractor := soundtrack.New(cfg.Media.FFmpegBinary, probe, logger)
	separator := separation.New(separation.Options{
		Python:  cfg.Separation.Python,
		Model:   cfg.Separation.Model,
		Device:  cfg.Separation.Device,
		Timeout: time.Duration(cfg.Separation.TimeoutSeconds) * time.Second,
	}, logger)

	var speech transcription.Engine
	switch cfg.Transcription.Engine {
	case config.EngineOpenAI:
		speech = transcription.NewOpenAIEngine(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.Transcription.Language)
	default:
		speech = transcription.NewWhisperEngine(transcription.WhisperOptions{
			Python:   cfg.Transcription.Python,
			Model:    cfg.Transcription.Model,
			Device:   cfg.Transcription.Device,
			Language: cfg.Transcription.Language,
		}, logger)
	}
	transcriber := transcription.New(speech, logger)

	llmCfg := cfg.TranslationLLM()
	client := llm.NewClient(llm.Config{
		Provider:       llmCfg.Provider,
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(llmCfg.MaxAttempts))
	translator := translation.New(client, logger, translation.WithStrictCount(cfg.Translation.StrictCount))

	var tts synthesis.Engine
	switch cfg.Synthesis.Engine {
	case config.EngineOpenAI:
		tts = synthesis.NewOpenAIEngine(synthesis.OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.Synthesis.OpenAIModel,
			Voice:   cfg.Synthesis.OpenAIVoice,
		}, logger)
	default:
		tts = synthesis.NewEdgeTTSEngine(cfg.Synthesis.EdgeTTSBinary)
	}
	synthesizer := synthesis.New(tts, cfg.Synthesis.Concurrency, logger)

	mix := mixer.New(mixer.Options{
		FFmpegBinary:     cfg.Media.FFmpegBinary,
		SampleRate:       cfg.Mixing.SampleRate,
		Channels:         cfg.Mixing.Channels,
		BackgroundGainDB: cfg.Mixing.BackgroundGainDB,
	}, logger)
	mux := muxer.New(muxer.Options{
		FFmpegBinary: cfg.Media.FFmpegBinary,
		VideoCodec:   cfg.Muxing.VideoCodec,
		AudioCodec:   cfg.Muxing.AudioCodec,
		AudioBitrate: cfg.Muxing.AudioBitrate,
	}, logger).WithProber(probe)

	p, err := dubbing.New(dubbing.Options{
		Extractor:   extractor,
		Separator:   separatorAdapter{sep: separator},
		Transcriber: transcriber,
		Translator:  translator,
		Synthesizer: synthesizer,
		Mixer:       mixerAdapter{mix: mix},
		Muxer:       mux,
		Logger:      logger,
		WorkDir:     cfg.WorkDirFor,
		MixFormat:   cfg.Mixing.OutputFormat,
	})
	if err != nil {
		_ = transcriber.Close()
		return nil, nil, err
	}
	return p, transcriber.Close, nil
}

type voiceFlags struct {
	voice   string
	profile string
	pitch   string
	rate    string
}

// resolveVoice picks the synthesis voice for target. Explicit flags win,
// then the configured preset or voice when it speaks the target language,
// then the catalog default for that language.
func resolveVoice(cfg *config.Config, flags voiceFlags, target string, logger *slog.Logger) voices.Profile {
	pitch := orDefault(flags.pitch, cfg.Synthesis.Pitch)
	rate := orDefault(flags.rate, cfg.Synthesis.Rate)

	if strings.TrimSpace(flags.profile) != "" || strings.TrimSpace(flags.voice) != "" {
		profile, exact := voices.Select(flags.profile, flags.voice, pitch, rate)
		if !exact {
			warnPresetFallback(logger, flags.profile, profile)
		}
		return withOffsets(profile, flags.pitch, flags.rate)
	}

	profile, exact := voices.Select(cfg.Synthesis.Profile, cfg.Synthesis.Voice, pitch, rate)
	if !exact {
		warnPresetFallback(logger, cfg.Synthesis.Profile, profile)
	}
	if voices.MatchesLanguage(profile.Voice, target) || cfg.Synthesis.Engine == config.EngineOpenAI {
		return profile
	}
	if id := voices.DefaultVoiceFor(target); id != "" {
		logger.Info("configured voice does not match target language; using catalog default",
			logging.String("configured_voice", profile.Voice),
			logging.String("voice", id),
			logging.String("target_language", target),
		)
		return voices.FromVoiceID(id, pitch, rate)
	}
	return profile
}

func warnPresetFallback(logger *slog.Logger, requested string, used voices.Profile) {
	logging.WarnWithContext(logger, "unknown voice preset; using fallback", "voice_preset_fallback",
		logging.String("requested", requested),
		logging.String("preset", used.Name),
		logging.String(logging.FieldErrorHint, "run 'redub voices' to list presets"),
		logging.String(logging.FieldImpact, "dub uses a different voice than requested"),
	)
}

// withOffsets applies explicit pitch and rate flags over a preset.
func withOffsets(profile voices.Profile, pitch, rate string) voices.Profile {
	if v := strings.TrimSpace(pitch); v != "" {
		profile.Pitch = v
	}
	if v := strings.TrimSpace(rate); v != "" {
		profile.Rate = v
	}
	return profile
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
