// Package transcription turns a vocals stem into ordered, timestamped text
// segments.
//
// Engines:
//   - WhisperEngine: a long-lived local Python worker that loads the whisper
//     model once and serves newline-delimited JSON requests over stdio
//   - OpenAIEngine: the hosted transcription endpoint (verbose JSON)
//
// Transcriber wraps an engine with the input checks, text trimming and error
// classification shared by both.
package transcription
