package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"redub/internal/dubbing"
	"redub/internal/logging"
	"redub/internal/services"
	"redub/internal/voices"
)

const stageName = "synthesize"

// Request describes a single clip render.
type Request struct {
	Text       string
	Profile    voices.Profile
	OutputPath string
}

// Engine renders speech to a file.
type Engine interface {
	Name() string
	// Extension is the clip file extension including the dot.
	Extension() string
	Synthesize(ctx context.Context, req Request) error
}

// Synthesizer renders every segment concurrently.
type Synthesizer struct {
	engine      Engine
	concurrency int
	logger      *slog.Logger
}

// New constructs a Synthesizer. concurrency <= 0 means unbounded.
func New(engine Engine, concurrency int, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		engine:      engine,
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "synthesizer"),
	}
}

// ClipPath returns the deterministic clip path for segment index.
func (s *Synthesizer) ClipPath(outputDir string, index int) string {
	return filepath.Join(outputDir, fmt.Sprintf("segment_%04d%s", index, s.engine.Extension()))
}

// Synthesize returns a copy of segments with AudioPath set on every element,
// or an error if any render fails. Input order and length are preserved.
func (s *Synthesizer) Synthesize(ctx context.Context, segments []dubbing.Segment, profile voices.Profile, outputDir string) ([]dubbing.Segment, error) {
	if s == nil || s.engine == nil {
		return nil, services.Wrap(services.ErrSynthesis, stageName, "init", "no engine configured", nil)
	}
	profile = profile.WithDefaults()
	if err := profile.Validate(); err != nil {
		return nil, services.Wrap(services.ErrSynthesis, stageName, "voice profile", "", err)
	}
	for i, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			return nil, services.Wrap(services.ErrSynthesis, stageName, "prepare", fmt.Sprintf("segment %d has no text", i), nil)
		}
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrSynthesis, stageName, "prepare output", outputDir, err)
	}

	out := dubbing.CloneSegments(segments)
	started := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		group.SetLimit(s.concurrency)
	}
	for i := range out {
		path := s.ClipPath(outputDir, i)
		text := out[i].Text
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			req := Request{Text: text, Profile: profile, OutputPath: path}
			if err := s.engine.Synthesize(groupCtx, req); err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			info, err := os.Stat(path)
			if err != nil || info.Size() == 0 {
				return fmt.Errorf("segment %d: %s produced no audio at %s", i, s.engine.Name(), path)
			}
			out[i].AudioPath = path
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrSynthesis, stageName, s.engine.Name(), "", err)
	}

	s.logger.Info("synthesis complete",
		logging.String("engine", s.engine.Name()),
		logging.String("voice", profile.Voice),
		logging.Int("segment_count", len(out)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}
