// Package soundtrack pulls the first audio track out of a video container
// into a standalone PCM WAV file.
package soundtrack

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"redub/internal/fileutil"
	"redub/internal/logging"
	"redub/internal/media/ffprobe"
	"redub/internal/services"
)

const stageName = "extract"

type commandRunner func(ctx context.Context, name string, args ...string) error

// Prober reports the streams in a media file.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Extractor writes a video's audio track to disk with ffmpeg.
type Extractor struct {
	ffmpeg     string
	probe      Prober
	sampleRate int
	channels   int
	logger     *slog.Logger
	run        commandRunner
}

// New constructs an Extractor. The output defaults to 44.1kHz stereo.
func New(ffmpegBinary string, probe Prober, logger *slog.Logger) *Extractor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Extractor{
		ffmpeg:     ffmpegBinary,
		probe:      probe,
		sampleRate: 44100,
		channels:   2,
		logger:     logging.NewComponentLogger(logger, "soundtrack"),
		run:        runCommand,
	}
}

// WithFormat overrides the PCM sample rate and channel count.
func (e *Extractor) WithFormat(sampleRate, channels int) *Extractor {
	if sampleRate > 0 {
		e.sampleRate = sampleRate
	}
	if channels > 0 {
		e.channels = channels
	}
	return e
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Extractor) WithCommandRunner(r commandRunner) *Extractor {
	if r != nil {
		e.run = r
	}
	return e
}

// Extract writes the first audio track of videoPath to destPath, replacing
// any existing file. Nothing is written when the video has no audio track.
func (e *Extractor) Extract(ctx context.Context, videoPath, destPath string) error {
	if _, err := fileutil.StatFile(videoPath); err != nil {
		return services.Wrap(services.ErrNotFound, stageName, "open video", videoPath, err)
	}
	if e.probe != nil {
		probe, err := e.probe.Inspect(ctx, videoPath)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "probe video", videoPath, err)
		}
		if !probe.HasAudio() {
			return services.Wrap(services.ErrNoAudioTrack, stageName, "probe video", videoPath, nil)
		}
	}
	if err := fileutil.EnsureParent(destPath); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "prepare output", "", err)
	}

	tmp := fileutil.TempSibling(destPath)
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-map", "0:a:0",
		"-vn", "-sn", "-dn",
		"-c:a", "pcm_s16le",
		"-ar", strconv.Itoa(e.sampleRate),
		"-ac", strconv.Itoa(e.channels),
		tmp,
	}
	e.logger.Debug("extracting soundtrack",
		logging.String("video", videoPath),
		logging.String("destination", destPath),
	)
	if err := e.run(ctx, e.ffmpeg, args...); err != nil {
		_ = os.Remove(tmp)
		if strings.Contains(err.Error(), "matches no streams") {
			return services.Wrap(services.ErrNoAudioTrack, stageName, "ffmpeg", videoPath, err)
		}
		return services.Wrap(services.ErrExternalTool, stageName, "ffmpeg", "audio extraction failed", err)
	}
	if !fileutil.IsRegularFile(tmp) {
		return services.Wrap(services.ErrExternalTool, stageName, "ffmpeg", "no output produced", nil)
	}
	if err := fileutil.Commit(tmp, destPath); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "finalize", "", err)
	}
	e.logger.Info("soundtrack extracted", logging.String("destination", destPath))
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
