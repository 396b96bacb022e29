// Package mixer overlays synthesized speech clips onto the background stem.
//
// Every input is first normalized to 16-bit PCM WAV at one sample rate and
// channel count with ffmpeg, then mixed in memory: each clip is summed into
// the bed starting at the sample frame for round(start*1000) milliseconds,
// clamped to the int16 range. The bed grows when a clip runs past its end,
// so the background is never truncated. The mix is written with go-audio and,
// for compressed formats, encoded with ffmpeg.
//
// Segments whose clip is missing or undecodable are skipped with a warning.
// Overlapping clips are overlaid as-is and reported in Result.Overlaps.
package mixer
