// Package logging assembles structured slog loggers and formatting helpers used
// across redub components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code tags log lines
// with the run identifier and pipeline stage automatically. WarnWithContext
// is the entry point for degraded-but-continuing conditions: it guarantees
// every warning carries an event type, a hint, and the user-facing impact.
package logging
