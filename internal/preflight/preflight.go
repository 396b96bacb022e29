package preflight

import (
	"context"

	"redub/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Phase selects which part of the pipeline is about to run.
type Phase int

const (
	// PhaseAnalyze covers extraction, separation and transcription.
	PhaseAnalyze Phase = iota
	// PhaseFinish covers translation, synthesis, mixing and muxing.
	PhaseFinish
	// PhaseAll covers both phases.
	PhaseAll
)

// RunAll executes the preflight checks relevant to phase.
func RunAll(ctx context.Context, cfg *config.Config, phase Phase) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.WorkRoot != "" {
		results = append(results, CheckDirectoryAccess("Work root", cfg.Paths.WorkRoot))
	}

	if phase == PhaseFinish || phase == PhaseAll {
		results = append(results, CheckLLM(ctx, "Translation LLM", cfg.TranslationLLM()))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
