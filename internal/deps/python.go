package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// PythonModule describes a Python package that must be importable by the
// configured interpreter (demucs, whisper).
type PythonModule struct {
	Name        string
	Python      string
	Module      string
	Description string
	Optional    bool
	Hint        string
}

// CommandRunner executes name with args and returns combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

const moduleProbeTimeout = 20 * time.Second

// CheckPythonModules verifies each module imports cleanly. A nil runner uses
// os/exec.
func CheckPythonModules(ctx context.Context, modules []PythonModule, run CommandRunner) []Status {
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		}
	}
	results := make([]Status, 0, len(modules))
	for _, mod := range modules {
		python := strings.TrimSpace(mod.Python)
		status := Status{
			Name:        mod.Name,
			Command:     fmt.Sprintf("%s -c 'import %s'", python, mod.Module),
			Description: strings.TrimSpace(mod.Description),
			Optional:    mod.Optional,
		}
		if python == "" {
			status.Detail = "python interpreter not configured"
			results = append(results, status)
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, moduleProbeTimeout)
		output, err := run(probeCtx, python, "-c", "import "+mod.Module)
		cancel()
		if err != nil {
			detail := lastLine(string(output))
			if detail == "" {
				detail = err.Error()
			}
			status.Detail = withHint(fmt.Sprintf("module %q not importable: %s", mod.Module, detail), mod.Hint)
		} else {
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
