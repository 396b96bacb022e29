// Package translation translates segment text in one batched request to a
// JSON-only text-generation engine, keeping segment order and timing.
package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"redub/internal/dubbing"
	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/services"
	"redub/internal/services/llm"
)

const stageName = "translate"

const systemPrompt = `You are a professional subtitle translator.
Translate every input string into the requested target language.
Keep the tone natural and conversational, as spoken dialogue.
Do not merge, split, drop, or reorder items.
Return ONLY a JSON array of strings with exactly one translation per input string, in the same order.
If you must return a JSON object, use {"translations": [...]} with that same array and no other keys.`

// Completer issues a JSON-only completion request.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type configuredChecker interface {
	Configured() bool
}

// Translator maps segments to their translations.
type Translator struct {
	client      Completer
	logger      *slog.Logger
	strictCount bool
}

// Option customizes a Translator.
type Option func(*Translator)

// WithStrictCount makes a reply with the wrong number of strings a hard
// failure instead of a prefix mapping.
func WithStrictCount(strict bool) Option {
	return func(t *Translator) {
		t.strictCount = strict
	}
}

// New constructs a Translator. client may be nil; Translate then fails with
// services.ErrClientNotInitialized.
func New(client Completer, logger *slog.Logger, opts ...Option) *Translator {
	t := &Translator{
		client: client,
		logger: logging.NewComponentLogger(logger, "translator"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type envelope struct {
	Translations []string `json:"translations"`
}

// Translate returns a new slice of the same length as segments with Start,
// End and AudioPath unchanged and Text translated. When the engine returns a
// different number of strings only the overlapping prefix is translated and
// the rest keep their source text, unless strict counting is enabled.
func (t *Translator) Translate(ctx context.Context, segments []dubbing.Segment, targetLanguage string) ([]dubbing.Segment, error) {
	if !t.ready() {
		return nil, services.Wrap(services.ErrClientNotInitialized, stageName, "init", "translation API key not configured", nil)
	}
	out := dubbing.CloneSegments(segments)
	if len(segments) == 0 {
		return out, nil
	}
	target := language.DisplayName(targetLanguage)
	if target == "" {
		return nil, services.Wrap(services.ErrTranslation, stageName, "prepare", "target language required", nil)
	}

	source, err := json.Marshal(dubbing.Texts(segments))
	if err != nil {
		return nil, services.Wrap(services.ErrTranslation, stageName, "encode request", "", err)
	}
	userPrompt := fmt.Sprintf("Translate the following list of %d strings to %s.\n%s", len(segments), target, source)

	started := time.Now()
	content, err := t.client.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, llm.ErrMissingAPIKey):
			return nil, services.Wrap(services.ErrClientNotInitialized, stageName, "request", "", err)
		}
		return nil, services.Wrap(services.ErrTranslation, stageName, "request", "", err)
	}
	translations, err := decodeTranslations(content)
	if err != nil {
		return nil, services.Wrap(services.ErrTranslation, stageName, "decode reply", "", err)
	}

	if len(translations) != len(segments) {
		if t.strictCount {
			return nil, services.Wrap(services.ErrTranslation, stageName, "decode reply",
				fmt.Sprintf("expected %d translations, received %d", len(segments), len(translations)), nil)
		}
		logging.WarnWithContext(t.logger, "translation count mismatch; keeping source text for unmatched segments", "translation_count_mismatch",
			logging.Int("expected", len(segments)),
			logging.Int("received", len(translations)),
			logging.String(logging.FieldErrorHint, "edit the untranslated segments or rerun finish"),
			logging.String(logging.FieldImpact, "some segments will be dubbed in the source language"),
		)
	}
	for i := 0; i < len(out) && i < len(translations); i++ {
		out[i].Text = strings.TrimSpace(translations[i])
	}

	t.logger.Info("translation complete",
		logging.String("target_language", target),
		logging.Int("segment_count", len(out)),
		logging.Int("translated", min(len(out), len(translations))),
		logging.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

func (t *Translator) ready() bool {
	if t == nil || t.client == nil {
		return false
	}
	if checker, ok := t.client.(configuredChecker); ok {
		return checker.Configured()
	}
	return true
}

// decodeTranslations accepts a bare array of strings or the translations
// envelope; any other shape is rejected.
func decodeTranslations(content string) ([]string, error) {
	var list []string
	arrayErr := llm.DecodeLLMJSON(content, &list)
	if arrayErr == nil {
		return list, nil
	}
	var wrapped envelope
	if err := llm.DecodeLLMJSON(content, &wrapped); err == nil && wrapped.Translations != nil {
		return wrapped.Translations, nil
	}
	return nil, arrayErr
}
