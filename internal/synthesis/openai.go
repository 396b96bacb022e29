package synthesis

import (
	"context"
	"io"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"redub/internal/fileutil"
	"redub/internal/logging"
)

// OpenAIOptions configures the hosted speech engine.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

// OpenAIEngine renders speech through the OpenAI speech endpoint. The voice
// comes from the options, not the profile, since the hosted voices are a
// separate catalog.
type OpenAIEngine struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	logger *slog.Logger
}

// NewOpenAIEngine constructs the engine.
func NewOpenAIEngine(opts OpenAIOptions, logger *slog.Logger) *OpenAIEngine {
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	model := openai.SpeechModel(strings.TrimSpace(opts.Model))
	if model == "" {
		model = openai.TTSModel1
	}
	voice := openai.SpeechVoice(strings.TrimSpace(opts.Voice))
	if voice == "" {
		voice = openai.VoiceNova
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		voice:  voice,
		logger: logging.NewComponentLogger(logger, "openai-tts"),
	}
}

func (e *OpenAIEngine) Name() string { return "openai" }

func (e *OpenAIEngine) Extension() string { return ".mp3" }

// Synthesize streams the rendered audio into req.OutputPath.
func (e *OpenAIEngine) Synthesize(ctx context.Context, req Request) error {
	if req.Profile.Pitch != "" && req.Profile.Pitch != "+0Hz" && req.Profile.Pitch != "-0Hz" {
		e.logger.Debug("pitch offset not supported by openai speech; ignoring",
			logging.String("pitch", req.Profile.Pitch),
		)
	}
	resp, err := e.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          e.model,
		Input:          req.Text,
		Voice:          e.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speedFromRate(req.Profile.RatePercent()),
	})
	if err != nil {
		return err
	}
	defer resp.Close()
	return fileutil.WriteAtomic(req.OutputPath, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, resp)
		return err
	})
}

// speedFromRate maps a percentage offset onto the endpoint's 0.25-4.0 speed.
func speedFromRate(percent int) float64 {
	speed := 1 + float64(percent)/100
	return min(max(speed, 0.25), 4.0)
}
