// Package separation splits an audio file into a vocals stem and a
// background stem by running demucs as a subprocess.
//
// demucs lays its output out as <out>/<model>/<track>/{vocals,no_vocals}.wav;
// Separate hides that layout behind Stems.
package separation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"redub/internal/fileutil"
	"redub/internal/logging"
	"redub/internal/services"
)

const (
	stageName    = "separate"
	DefaultModel = "htdemucs"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Stems holds the canonical paths of the two separated tracks.
type Stems struct {
	Vocals     string
	Background string
}

// Options configures the demucs invocation.
type Options struct {
	Python  string
	Model   string
	Device  string
	Timeout time.Duration
}

// Separator runs demucs. A single instance may be reused for sequential calls.
type Separator struct {
	opts   Options
	logger *slog.Logger
	run    commandRunner
}

// New constructs a Separator.
func New(opts Options, logger *slog.Logger) *Separator {
	if strings.TrimSpace(opts.Python) == "" {
		opts.Python = "python3"
	}
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = DefaultModel
	}
	return &Separator{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "separator"),
		run:    runCommand,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (s *Separator) WithCommandRunner(r commandRunner) *Separator {
	if r != nil {
		s.run = r
	}
	return s
}

// Model returns the demucs model name.
func (s *Separator) Model() string {
	return s.opts.Model
}

// StemPaths returns where demucs writes the stems for audioPath.
func (s *Separator) StemPaths(audioPath, outputDir string) Stems {
	track := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	dir := filepath.Join(outputDir, s.opts.Model, track)
	return Stems{
		Vocals:     filepath.Join(dir, "vocals.wav"),
		Background: filepath.Join(dir, "no_vocals.wav"),
	}
}

// Separate runs demucs on audioPath and returns the two stems.
func (s *Separator) Separate(ctx context.Context, audioPath, outputDir string) (Stems, error) {
	if _, err := fileutil.StatFile(audioPath); err != nil {
		return Stems{}, services.Wrap(services.ErrNotFound, stageName, "open audio", audioPath, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Stems{}, services.Wrap(services.ErrSeparation, stageName, "prepare output", outputDir, err)
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	args := []string{"-m", "demucs.separate", "--two-stems=vocals", "-n", s.opts.Model}
	if device := strings.TrimSpace(s.opts.Device); device != "" {
		args = append(args, "-d", device)
	}
	args = append(args, "-o", outputDir, audioPath)

	s.logger.Info("separating vocals",
		logging.String("audio", audioPath),
		logging.String("model", s.opts.Model),
		logging.String("device", s.opts.Device),
	)
	started := time.Now()
	if err := s.run(ctx, s.opts.Python, args...); err != nil {
		return Stems{}, services.Wrap(services.ErrSeparation, stageName, "demucs", "", err)
	}

	stems := s.StemPaths(audioPath, outputDir)
	var missing []string
	for _, path := range []string{stems.Vocals, stems.Background} {
		if !fileutil.IsRegularFile(path) {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return Stems{}, services.Wrap(services.ErrSeparation, stageName, "locate stems",
			"expected output missing: "+strings.Join(missing, ", "), nil)
	}
	s.logger.Info("separation complete",
		logging.String("vocals", stems.Vocals),
		logging.String("background", stems.Background),
		logging.Duration("elapsed", time.Since(started)),
	)
	return stems, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(strings.TrimSpace(string(output)), 2000))
	}
	return nil
}

// tail keeps the end of long tool output, where demucs prints its traceback.
func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
