// Package services defines shared utilities consumed by the pipeline stages
// and external engine wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper, so callers can classify
//     failures with errors.Is regardless of which engine produced them.
//   - StageError, which attaches the failing pipeline stage to any cause.
package services
