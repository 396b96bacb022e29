// Package muxer replaces a video's audio with the dubbed mix.
package muxer

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

	"redub/internal/fileutil"
	"redub/internal/logging"
	"redub/internal/media/ffprobe"
	"redub/internal/services"
)

const stageName = "mux"

type commandRunner func(ctx context.Context, name string, args ...string) error

// Options configures the final encode. Empty fields fall back to
// libx264, aac and 192k.
type Options struct {
	FFmpegBinary string
	VideoCodec   string
	AudioCodec   string
	AudioBitrate string
}

// Prober reports the source video's duration.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Muxer combines the source video's picture with a new audio track.
type Muxer struct {
	opts   Options
	logger *slog.Logger
	run    commandRunner
	probe  Prober
}

// New constructs a Muxer.
func New(opts Options, logger *slog.Logger) *Muxer {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(opts.VideoCodec) == "" {
		opts.VideoCodec = "libx264"
	}
	if strings.TrimSpace(opts.AudioCodec) == "" {
		opts.AudioCodec = "aac"
	}
	if strings.TrimSpace(opts.AudioBitrate) == "" {
		opts.AudioBitrate = "192k"
	}
	return &Muxer{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "muxer"),
		run:    runCommand,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r commandRunner) *Muxer {
	if r != nil {
		m.run = r
	}
	return m
}

// WithProber caps the output at the source video's duration, so a mix that
// runs past the last frame does not extend the container.
func (m *Muxer) WithProber(p Prober) *Muxer {
	m.probe = p
	return m
}

// Mux writes outputPath with the first video stream of videoPath and
// audioPath as its only audio track. The video is never cut to the audio
// length. The write goes through a hidden temp file and a rename.
func (m *Muxer) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrMux, stageName, "validate", "output path is required", nil)
	}
	for _, input := range []string{videoPath, audioPath} {
		if !fileutil.IsRegularFile(input) {
			return services.Wrap(services.ErrMux, stageName, "open input", input, os.ErrNotExist)
		}
	}
	if err := fileutil.EnsureParent(outputPath); err != nil {
		return services.Wrap(services.ErrMux, stageName, "prepare output", outputPath, err)
	}

	tmpPath := tempPath(outputPath)
	args := m.buildArgs(videoPath, audioPath, tmpPath, m.videoDuration(ctx, videoPath))
	m.logger.Debug("executing ffmpeg mux",
		logging.String("video", videoPath),
		logging.String("audio", audioPath),
		logging.String("output", outputPath),
		logging.String("args", strings.Join(args, " ")),
	)

	started := time.Now()
	if err := m.run(ctx, m.opts.FFmpegBinary, args...); err != nil {
		_ = os.Remove(tmpPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrMux, stageName, "ffmpeg", "", err)
	}
	if !fileutil.IsRegularFile(tmpPath) {
		return services.Wrap(services.ErrMux, stageName, "ffmpeg", "no output file produced", nil)
	}
	if err := fileutil.Commit(tmpPath, outputPath); err != nil {
		return services.Wrap(services.ErrMux, stageName, "replace output", outputPath, err)
	}

	m.logger.Info("dubbed video written",
		logging.String(logging.FieldEventType, "mux_complete"),
		logging.String("output", outputPath),
		logging.String("video_codec", m.opts.VideoCodec),
		logging.String("audio_codec", m.opts.AudioCodec),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// videoDuration returns zero when no prober is set or the probe fails; the
// mux then runs uncapped.
func (m *Muxer) videoDuration(ctx context.Context, videoPath string) time.Duration {
	if m.probe == nil {
		return 0
	}
	result, err := m.probe.Inspect(ctx, videoPath)
	if err != nil {
		logging.WarnWithContext(m.logger, "could not probe video duration", "mux_probe_failed",
			logging.String("video", videoPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "output may run past the last video frame"),
		)
		return 0
	}
	return result.Duration()
}

func (m *Muxer) buildArgs(videoPath, audioPath, outputPath string, limit time.Duration) []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", m.opts.VideoCodec,
		"-c:a", m.opts.AudioCodec,
		"-b:a", m.opts.AudioBitrate,
	}
	if limit > 0 {
		args = append(args, "-t", strconv.FormatFloat(limit.Seconds(), 'f', 3, 64))
	}
	return append(args, outputPath)
}

// tempPath keeps the extension last so ffmpeg still picks the container.
func tempPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, ".mux-"+strings.TrimSuffix(base, ext)+".tmp"+ext)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
