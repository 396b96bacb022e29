package transcription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"redub/internal/dubbing"
	"redub/internal/fileutil"
	"redub/internal/logging"
	"redub/internal/services"
)

const stageName = "transcribe"

// RawSegment is a segment as reported by an engine.
type RawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Engine is a speech recognition backend.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) ([]RawSegment, error)
}

// Transcriber converts audio into dubbing segments.
type Transcriber struct {
	engine Engine
	logger *slog.Logger
}

// New wraps engine.
func New(engine Engine, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		engine: engine,
		logger: logging.NewComponentLogger(logger, "transcriber"),
	}
}

// Transcribe returns one segment per engine segment, in engine order, with
// whitespace trimmed from the text. Silence yields an empty slice.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) ([]dubbing.Segment, error) {
	if t == nil || t.engine == nil {
		return nil, services.Wrap(services.ErrTranscription, stageName, "init", "no engine configured", nil)
	}
	if _, err := fileutil.StatFile(audioPath); err != nil {
		return nil, services.Wrap(services.ErrNotFound, stageName, "open audio", audioPath, err)
	}

	started := time.Now()
	raw, err := t.engine.Transcribe(ctx, audioPath)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrTranscription, stageName, t.engine.Name(), "", err)
	}

	segments := make([]dubbing.Segment, 0, len(raw))
	for _, seg := range raw {
		segments = append(segments, dubbing.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	t.logger.Info("transcription complete",
		logging.String("engine", t.engine.Name()),
		logging.Int("segment_count", len(segments)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return segments, nil
}

// Close releases engine resources such as a running worker process.
func (t *Transcriber) Close() error {
	if t == nil || t.engine == nil {
		return nil
	}
	if closer, ok := t.engine.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
