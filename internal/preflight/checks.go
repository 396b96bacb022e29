package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"redub/internal/config"
	"redub/internal/deps"
	"redub/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%s)", cfg.Provider, cfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries required by the configured
// engines.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Required for extraction, mixing and muxing",
			Hint:        "install ffmpeg from your package manager",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Required for audio track detection",
			Hint:        "ships with ffmpeg",
		},
		{
			Name:        "Python",
			Command:     cfg.Separation.Python,
			Description: "Required for demucs separation",
		},
	}
	if cfg.Transcription.Engine == config.EngineWhisper && cfg.Transcription.Python != cfg.Separation.Python {
		requirements = append(requirements, deps.Requirement{
			Name:        "Python (whisper)",
			Command:     cfg.Transcription.Python,
			Description: "Required for local whisper transcription",
		})
	}
	if cfg.Synthesis.Engine == config.EngineEdgeTTS {
		requirements = append(requirements, deps.Requirement{
			Name:        "edge-tts",
			Command:     cfg.Synthesis.EdgeTTSBinary,
			Description: "Required for speech synthesis",
			Hint:        "pip install edge-tts",
		})
	}
	return deps.CheckBinaries(requirements)
}

// CheckPythonDeps verifies the Python packages backing separation and local
// transcription import cleanly.
func CheckPythonDeps(ctx context.Context, cfg *config.Config, run deps.CommandRunner) []deps.Status {
	modules := []deps.PythonModule{
		{
			Name:        "demucs",
			Python:      cfg.Separation.Python,
			Module:      "demucs.separate",
			Description: "Source separation model",
			Hint:        "pip install demucs",
		},
	}
	if cfg.Transcription.Engine == config.EngineWhisper {
		modules = append(modules, deps.PythonModule{
			Name:        "whisper",
			Python:      cfg.Transcription.Python,
			Module:      "whisper",
			Description: "Local speech recognition model",
			Hint:        "pip install openai-whisper",
		})
	}
	return deps.CheckPythonModules(ctx, modules, run)
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
