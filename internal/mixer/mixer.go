package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"redub/internal/dubbing"
	"redub/internal/fileutil"
	"redub/internal/logging"
	"redub/internal/services"
)

const stageName = "mix"

type commandRunner func(ctx context.Context, name string, args ...string) error

// Options configures the mix format.
type Options struct {
	FFmpegBinary     string
	SampleRate       int
	Channels         int
	BackgroundGainDB float64
}

// Overlap records two clips that play at the same time.
type Overlap struct {
	First   int
	Second  int
	Seconds float64
}

// Result summarizes a mix.
type Result struct {
	OutputPath string
	Format     string
	Mixed      int
	Skipped    []int
	Overlaps   []Overlap
	Duration   time.Duration
}

// Mixer overlays clips onto a background track.
type Mixer struct {
	opts   Options
	logger *slog.Logger
	run    commandRunner
}

// New constructs a Mixer. Zero options default to ffmpeg, 44.1kHz stereo.
func New(opts Options, logger *slog.Logger) *Mixer {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.Channels <= 0 {
		opts.Channels = 2
	}
	return &Mixer{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "mixer"),
		run:    runCommand,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Mixer) WithCommandRunner(r commandRunner) *Mixer {
	if r != nil {
		m.run = r
	}
	return m
}

// Mix overlays each segment's clip onto backgroundPath at the segment's
// start and writes the result to destPath (format by extension).
func (m *Mixer) Mix(ctx context.Context, backgroundPath string, segments []dubbing.Segment, destPath string) (Result, error) {
	if _, err := fileutil.StatFile(backgroundPath); err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, stageName, "open background", backgroundPath, err)
	}
	format, outputPath := OutputFormat(destPath)
	if outputPath != destPath {
		logging.WarnWithContext(m.logger, "unsupported mix extension; writing mp3", "mix_format_fallback",
			logging.String("requested", destPath),
			logging.String("output", outputPath),
			logging.String(logging.FieldErrorHint, "use .mp3, .wav, .ogg or .flac"),
		)
	}
	if err := fileutil.EnsureParent(outputPath); err != nil {
		return Result{}, services.Wrap(services.ErrMix, stageName, "prepare output", "", err)
	}
	scratch, err := os.MkdirTemp(filepath.Dir(outputPath), ".mix-")
	if err != nil {
		return Result{}, services.Wrap(services.ErrMix, stageName, "scratch dir", "", err)
	}
	defer os.RemoveAll(scratch)

	bed, err := m.decode(ctx, backgroundPath, filepath.Join(scratch, "background.wav"))
	if err != nil {
		return Result{}, services.Wrap(services.ErrMix, stageName, "decode background", backgroundPath, err)
	}
	applyGain(bed, m.opts.BackgroundGainDB)
	bedSeconds := bed.seconds()

	result := Result{OutputPath: outputPath, Format: format}
	latestEnd, latestIndex := -1.0, -1
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if !fileutil.IsRegularFile(seg.AudioPath) {
			m.skip(&result, i, seg, "clip missing")
			continue
		}
		clip, err := m.decode(ctx, seg.AudioPath, filepath.Join(scratch, fmt.Sprintf("clip_%04d.wav", i)))
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			m.skip(&result, i, seg, err.Error())
			continue
		}
		offset := frameOffset(seg.Start, bed.sampleRate)
		clipStart := float64(offset) / float64(bed.sampleRate)
		clipEnd := clipStart + clip.seconds()
		if latestIndex >= 0 && clipStart < latestEnd {
			overlap := Overlap{First: latestIndex, Second: i, Seconds: latestEnd - clipStart}
			result.Overlaps = append(result.Overlaps, overlap)
			logging.WarnWithContext(m.logger, "speech clips overlap", "mix_overlap",
				logging.Int("first_segment", overlap.First),
				logging.Int("second_segment", overlap.Second),
				logging.Float64("overlap_seconds", overlap.Seconds),
				logging.String(logging.FieldErrorHint, "shorten the translated text or adjust segment timing"),
				logging.String(logging.FieldImpact, "two voices play at once"),
			)
		}
		if clipEnd > latestEnd {
			latestEnd, latestIndex = clipEnd, i
		}
		overlay(bed, clip, offset)
		result.Mixed++
	}

	if err := m.write(ctx, bed, format, scratch, outputPath); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, services.Wrap(services.ErrMix, stageName, "write "+format, outputPath, err)
	}
	result.Duration = time.Duration(bed.seconds() * float64(time.Second))
	m.logger.Info("mix complete",
		logging.String("output", outputPath),
		logging.Int("mixed", result.Mixed),
		logging.Int("skipped", len(result.Skipped)),
		logging.Int("overlaps", len(result.Overlaps)),
		logging.Float64("background_seconds", bedSeconds),
		logging.Float64("output_seconds", bed.seconds()),
	)
	return result, nil
}

func (m *Mixer) skip(result *Result, index int, seg dubbing.Segment, reason string) {
	result.Skipped = append(result.Skipped, index)
	logging.WarnWithContext(m.logger, "skipping segment without usable audio", "mix_segment_skipped",
		logging.Span("segment", index, seg.Start, seg.End),
		logging.String("audio_path", seg.AudioPath),
		logging.String("reason", reason),
		logging.String(logging.FieldErrorHint, "rerun finish to synthesize the segment again"),
		logging.String(logging.FieldImpact, "segment is silent in the dubbed audio"),
	)
}

// decode converts src to PCM WAV at the mix format and loads it.
func (m *Mixer) decode(ctx context.Context, src, dest string) (*track, error) {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", src,
		"-vn",
		"-c:a", "pcm_s16le",
		"-ar", strconv.Itoa(m.opts.SampleRate),
		"-ac", strconv.Itoa(m.opts.Channels),
		dest,
	}
	if err := m.run(ctx, m.opts.FFmpegBinary, args...); err != nil {
		return nil, err
	}
	t, err := readWAV(dest)
	if err != nil {
		return nil, err
	}
	if t.sampleRate != m.opts.SampleRate || t.channels != m.opts.Channels {
		return nil, fmt.Errorf("decoded %s as %dHz/%dch, want %dHz/%dch", src, t.sampleRate, t.channels, m.opts.SampleRate, m.opts.Channels)
	}
	return t, nil
}

func (m *Mixer) write(ctx context.Context, bed *track, format, scratch, outputPath string) error {
	if format == FormatWAV {
		tmp := fileutil.TempSibling(outputPath)
		if err := writeWAV(tmp, bed); err != nil {
			_ = os.Remove(tmp)
			return err
		}
		return fileutil.Commit(tmp, outputPath)
	}

	mixed := filepath.Join(scratch, "mixed.wav")
	if err := writeWAV(mixed, bed); err != nil {
		return err
	}
	tmp := fileutil.TempSibling(outputPath)
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", mixed}
	args = append(args, encoderArgs[format]...)
	args = append(args, tmp)
	if err := m.run(ctx, m.opts.FFmpegBinary, args...); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if !fileutil.IsRegularFile(tmp) {
		return fmt.Errorf("ffmpeg produced no %s output", format)
	}
	return fileutil.Commit(tmp, outputPath)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
