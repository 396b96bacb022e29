// Package synthesis renders one speech clip per segment.
//
// Engines:
//   - EdgeTTSEngine: the edge-tts command line tool, honoring voice, pitch and rate
//   - OpenAIEngine: the hosted speech endpoint; rate maps to speed, pitch is unsupported
//
// Synthesizer fans the segments out concurrently under an errgroup: the first
// failure cancels the renders still in flight and fails the whole call.
// Clip names are derived from the segment index (segment_0000.mp3, ...), so
// retries overwrite the same files.
package synthesis
