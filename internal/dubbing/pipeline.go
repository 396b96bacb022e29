package dubbing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"redub/internal/logging"
	"redub/internal/services"
	"redub/internal/voices"
)

// Stage names, in execution order.
const (
	StageExtract    = "extract"
	StageSeparate   = "separate"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageSynthesize = "synthesize"
	StageMix        = "mix"
	StageMux        = "mux"
)

// Work dir layout.
const (
	DefaultWorkDirName = "dubbing_temp"
	originalAudioName  = "original.wav"
	separationDirName  = "separation"
	ttsDirName         = "tts_audio"
	mixedAudioStem     = "mixed_audio"
	defaultMixFormat   = "mp3"
	dubbedPrefix       = "dubbed_"
)

// Extractor pulls the soundtrack out of a video.
type Extractor interface {
	Extract(ctx context.Context, videoPath, destPath string) error
}

// Separator splits a soundtrack into vocals and background stems.
type Separator interface {
	Separate(ctx context.Context, audioPath, outputDir string) (vocals, background string, err error)
}

// Transcriber turns speech into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
}

// Translator rewrites segment text into another language, keeping timings.
type Translator interface {
	Translate(ctx context.Context, segments []Segment, targetLanguage string) ([]Segment, error)
}

// Synthesizer renders one clip per segment into outputDir.
type Synthesizer interface {
	Synthesize(ctx context.Context, segments []Segment, profile voices.Profile, outputDir string) ([]Segment, error)
}

// Mixer lays clips over the background and returns the written path, which
// may differ from destPath when the extension is unsupported.
type Mixer interface {
	Mix(ctx context.Context, backgroundPath string, segments []Segment, destPath string) (string, error)
}

// Muxer swaps the video's audio for the mixed track.
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// Options wires the pipeline's collaborators.
type Options struct {
	Extractor   Extractor
	Separator   Separator
	Transcriber Transcriber
	Translator  Translator
	Synthesizer Synthesizer
	Mixer       Mixer
	Muxer       Muxer
	Logger      *slog.Logger

	// WorkDir picks the scratch directory for a run. Nil uses
	// DefaultWorkDir.
	WorkDir func(videoPath, runID string) string
	// DefaultVoice is used when a finish request names no voice.
	DefaultVoice voices.Profile
	// MixFormat is the mixed audio extension, mp3 when empty.
	MixFormat string
}

// FinishRequest parameterizes the finish phase.
type FinishRequest struct {
	TargetLanguage string
	// OutputPath defaults to dubbed_<video name> next to the source.
	OutputPath string
	Voice      voices.Profile
}

// Pipeline sequences the dubbing stages. Stages run strictly one after
// another; nothing is retried here.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Pipeline.
func New(opts Options) (*Pipeline, error) {
	var missing []string
	for name, set := range map[string]bool{
		"extractor":   opts.Extractor != nil,
		"separator":   opts.Separator != nil,
		"transcriber": opts.Transcriber != nil,
		"translator":  opts.Translator != nil,
		"synthesizer": opts.Synthesizer != nil,
		"mixer":       opts.Mixer != nil,
		"muxer":       opts.Muxer != nil,
	} {
		if !set {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "construct",
			"missing "+strings.Join(missing, ", "), nil)
	}
	if opts.WorkDir == nil {
		opts.WorkDir = DefaultWorkDir
	}
	if strings.TrimSpace(opts.MixFormat) == "" {
		opts.MixFormat = defaultMixFormat
	}
	opts.MixFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(opts.MixFormat)), ".")
	return &Pipeline{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "pipeline")}, nil
}

// SharedWorkRoot returns the dubbing_temp directory beside the video that
// holds the default per-run work dirs.
func SharedWorkRoot(videoPath string) string {
	return filepath.Join(filepath.Dir(videoPath), DefaultWorkDirName)
}

// DefaultWorkDir returns dubbing_temp/<video stem>-<run id prefix> beside the
// video. Every run gets its own directory since the artifact names inside
// it are fixed.
func DefaultWorkDir(videoPath, runID string) string {
	return filepath.Join(SharedWorkRoot(videoPath), RunDirName(videoPath, runID))
}

// RunDirName names a run's work dir after the video stem and the first eight
// characters of runID.
func RunDirName(videoPath, runID string) string {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	if runID = strings.TrimSpace(runID); runID == "" {
		return base
	}
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return base + "-" + runID
}

// DefaultOutputPath returns dubbed_<name> beside the video.
func DefaultOutputPath(videoPath string) string {
	return filepath.Join(filepath.Dir(videoPath), dubbedPrefix+filepath.Base(videoPath))
}

// Analyze extracts, separates and transcribes videoPath. The returned
// context holds untranslated segments for review before Finish.
func (p *Pipeline) Analyze(ctx context.Context, videoPath string) (*PipelineContext, error) {
	if strings.TrimSpace(videoPath) == "" {
		return nil, services.AsStage(StageExtract,
			services.Wrap(services.ErrValidation, StageExtract, "validate", "video path is required", nil))
	}
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	workDir := p.opts.WorkDir(videoPath, runID)
	pc := &PipelineContext{
		RunID:           runID,
		WorkDir:         workDir,
		SourceVideoPath: videoPath,
	}
	logging.WithContext(ctx, p.logger).Info("analysis started",
		logging.String(logging.FieldEventType, "analyze_start"),
		logging.String("video", videoPath),
		logging.String("work_dir", workDir),
	)

	originalAudio := filepath.Join(workDir, originalAudioName)
	err := p.runStage(ctx, StageExtract, func(ctx context.Context) error {
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, StageExtract, "create work dir", workDir, err)
		}
		return p.opts.Extractor.Extract(ctx, videoPath, originalAudio)
	})
	if err != nil {
		return nil, err
	}

	err = p.runStage(ctx, StageSeparate, func(ctx context.Context) error {
		vocals, background, err := p.opts.Separator.Separate(ctx, originalAudio, filepath.Join(workDir, separationDirName))
		if err != nil {
			return err
		}
		pc.VocalsAudioPath, pc.BackgroundAudioPath = vocals, background
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.runStage(ctx, StageTranscribe, func(ctx context.Context) error {
		segments, err := p.opts.Transcriber.Transcribe(ctx, pc.VocalsAudioPath)
		if err != nil {
			return err
		}
		if idx := FirstOutOfOrder(segments); idx >= 0 {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "transcript segments out of order", "segments_out_of_order",
				logging.Span("segment", idx, segments[idx].Start, segments[idx].End),
				logging.Float64("previous_start", segments[idx-1].Start),
				logging.String(logging.FieldErrorHint, "review segment timings before finishing"),
				logging.String(logging.FieldImpact, "segments are kept in engine order"),
			)
		}
		pc.Segments = segments
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pc.Segments == nil {
		pc.Segments = []Segment{}
	}

	logging.WithContext(ctx, p.logger).Info("analysis complete",
		logging.String(logging.FieldEventType, "analyze_complete"),
		logging.Int("segments", len(pc.Segments)),
		logging.String("background", pc.BackgroundAudioPath),
	)
	return pc, nil
}

// Finish translates, synthesizes, mixes and muxes a context produced by
// Analyze and returns the dubbed video path. pc is not modified.
func (p *Pipeline) Finish(ctx context.Context, pc *PipelineContext, req FinishRequest) (string, error) {
	if err := pc.Validate(); err != nil {
		return "", services.Wrap(services.ErrValidation, "finish", "validate context", "", err)
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		return "", services.Wrap(services.ErrValidation, "finish", "validate request", "target language is required", nil)
	}
	run := pc.Clone()
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, run.RunID)

	profile := p.resolveVoice(req)
	if err := profile.Validate(); err != nil {
		return "", services.Wrap(services.ErrValidation, "finish", "validate voice", "", err)
	}
	outputPath := strings.TrimSpace(req.OutputPath)
	if outputPath == "" {
		outputPath = DefaultOutputPath(run.SourceVideoPath)
	}
	logging.WithContext(ctx, p.logger).Info("finish started",
		logging.String(logging.FieldEventType, "finish_start"),
		logging.String("target_language", req.TargetLanguage),
		logging.String("voice", profile.Voice),
		logging.Int("segments", len(run.Segments)),
		logging.String("output", outputPath),
	)

	err := p.runStage(ctx, StageTranslate, func(ctx context.Context) error {
		translated, err := p.opts.Translator.Translate(ctx, run.Segments, req.TargetLanguage)
		if err != nil {
			return err
		}
		if len(translated) != len(run.Segments) {
			return services.Wrap(services.ErrTranslation, StageTranslate, "segment count",
				fmt.Sprintf("expected %d segments, got %d", len(run.Segments), len(translated)), nil)
		}
		run.Segments = translated
		return nil
	})
	if err != nil {
		return "", err
	}

	err = p.runStage(ctx, StageSynthesize, func(ctx context.Context) error {
		rendered, err := p.opts.Synthesizer.Synthesize(ctx, run.Segments, profile, filepath.Join(run.WorkDir, ttsDirName))
		if err != nil {
			return err
		}
		run.Segments = rendered
		return nil
	})
	if err != nil {
		return "", err
	}

	var mixedPath string
	err = p.runStage(ctx, StageMix, func(ctx context.Context) error {
		dest := filepath.Join(run.WorkDir, mixedAudioStem+"."+p.opts.MixFormat)
		written, err := p.opts.Mixer.Mix(ctx, run.BackgroundAudioPath, run.Segments, dest)
		if err != nil {
			return err
		}
		mixedPath = written
		return nil
	})
	if err != nil {
		return "", err
	}

	err = p.runStage(ctx, StageMux, func(ctx context.Context) error {
		return p.opts.Muxer.Mux(ctx, run.SourceVideoPath, mixedPath, outputPath)
	})
	if err != nil {
		return "", err
	}

	logging.WithContext(ctx, p.logger).Info("finish complete",
		logging.String(logging.FieldEventType, "finish_complete"),
		logging.String("output", outputPath),
	)
	return outputPath, nil
}

// Run performs Analyze and Finish back to back.
func (p *Pipeline) Run(ctx context.Context, videoPath string, req FinishRequest) (string, error) {
	pc, err := p.Analyze(ctx, videoPath)
	if err != nil {
		return "", err
	}
	if err := RequireSpeech(pc); err != nil {
		return "", err
	}
	return p.Finish(ctx, pc, req)
}

// RequireSpeech fails with a transcribe-stage error when analysis found no
// speech to dub.
func RequireSpeech(pc *PipelineContext) error {
	if pc != nil && len(pc.Segments) > 0 {
		return nil
	}
	source := ""
	if pc != nil {
		source = pc.SourceVideoPath
	}
	return services.AsStage(StageTranscribe,
		services.Wrap(services.ErrTranscription, StageTranscribe, "detect speech", "no speech found in "+source, nil))
}

func (p *Pipeline) resolveVoice(req FinishRequest) voices.Profile {
	if strings.TrimSpace(req.Voice.Voice) != "" {
		return req.Voice.WithDefaults()
	}
	if strings.TrimSpace(p.opts.DefaultVoice.Voice) != "" {
		return p.opts.DefaultVoice.WithDefaults()
	}
	if id := voices.DefaultVoiceFor(req.TargetLanguage); id != "" {
		return voices.FromVoiceID(id, "", "")
	}
	profile, _ := voices.Resolve("")
	return profile
}

func stageHint(stage string) string {
	switch stage {
	case StageExtract, StageMix, StageMux:
		return "run 'redub check' to confirm ffmpeg is installed"
	case StageSeparate:
		return "confirm demucs is importable by separation.python"
	case StageTranscribe:
		return "confirm the transcription engine is installed or its API key is set"
	case StageTranslate:
		return "check translation.api_key and the provider's status"
	case StageSynthesize:
		return "check the voice id and the synthesis engine"
	default:
		return "check logs for details"
	}
}

func (p *Pipeline) runStage(ctx context.Context, name string, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.logger)
	started := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx); err != nil {
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, stageHint(name)),
		)
		return services.AsStage(name, err)
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
