// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Prober: runs ffprobe (or an injected runner in tests)
//   - Result: parsed streams and container format
//
// The soundtrack extractor uses HasAudio to reject silent videos before any
// file is written; the mixer and CLI use Duration for reporting.
package ffprobe
