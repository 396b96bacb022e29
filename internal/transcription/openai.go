package transcription

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngine transcribes through the hosted whisper endpoint.
type OpenAIEngine struct {
	client   *openai.Client
	language string
}

// NewOpenAIEngine builds an engine. baseURL may be empty for the default
// endpoint; language is an optional ISO 639-1 hint.
func NewOpenAIEngine(apiKey, baseURL, language string) *OpenAIEngine {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if base := strings.TrimSpace(baseURL); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	return &OpenAIEngine{
		client:   openai.NewClientWithConfig(cfg),
		language: strings.TrimSpace(language),
	}
}

// Name identifies the engine in logs and errors.
func (e *OpenAIEngine) Name() string { return "openai" }

// Transcribe uploads audioPath and returns the verbose segments.
func (e *OpenAIEngine) Transcribe(ctx context.Context, audioPath string) ([]RawSegment, error) {
	resp, err := e.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: e.language,
	})
	if err != nil {
		return nil, err
	}
	segments := make([]RawSegment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, RawSegment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return segments, nil
}
