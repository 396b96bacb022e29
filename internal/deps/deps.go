package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an executable a dubbing stage shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// Hint is appended to the failure detail, e.g. "pip install edge-tts".
	Hint string
}

// Status reports one probe. Command holds the resolved path on success.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement on PATH (or as given when it is a
// path).
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if status.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(status.Command)
		if err != nil {
			status.Detail = withHint(fmt.Sprintf("binary %q not found", status.Command), req.Hint)
		} else {
			status.Command = resolved
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

// Missing filters statuses down to unavailable required dependencies.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}

func withHint(detail, hint string) string {
	if hint = strings.TrimSpace(hint); hint == "" {
		return detail
	}
	return detail + " (" + hint + ")"
}
