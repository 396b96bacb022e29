package synthesis

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"redub/internal/fileutil"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// EdgeTTSEngine shells out to the edge-tts CLI.
type EdgeTTSEngine struct {
	binary string
	run    commandRunner
}

// NewEdgeTTSEngine constructs an engine for binary (default "edge-tts").
func NewEdgeTTSEngine(binary string) *EdgeTTSEngine {
	if strings.TrimSpace(binary) == "" {
		binary = "edge-tts"
	}
	return &EdgeTTSEngine{binary: binary, run: runCommand}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *EdgeTTSEngine) WithCommandRunner(r commandRunner) *EdgeTTSEngine {
	if r != nil {
		e.run = r
	}
	return e
}

func (e *EdgeTTSEngine) Name() string { return "edge-tts" }

func (e *EdgeTTSEngine) Extension() string { return ".mp3" }

// Synthesize renders req into req.OutputPath. Values are passed in --flag=value
// form because pitch and rate offsets may start with "-".
func (e *EdgeTTSEngine) Synthesize(ctx context.Context, req Request) error {
	tmp := fileutil.TempSibling(req.OutputPath)
	args := []string{
		"--voice=" + req.Profile.Voice,
		"--pitch=" + req.Profile.Pitch,
		"--rate=" + req.Profile.Rate,
		"--text=" + req.Text,
		"--write-media=" + tmp,
	}
	if err := e.run(ctx, e.binary, args...); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if !fileutil.IsRegularFile(tmp) {
		return fmt.Errorf("%s wrote no media", e.binary)
	}
	return fileutil.Commit(tmp, req.OutputPath)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
