package mixer

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	maxInt16 = math.MaxInt16
	minInt16 = math.MinInt16

	// chunkSamples bounds the int buffer used while decoding and encoding.
	chunkSamples = 1 << 16
)

// track is interleaved 16-bit PCM, two bytes per sample so a feature-length
// bed stays in memory.
type track struct {
	samples    []int16
	sampleRate int
	channels   int
}

func (t *track) frames() int {
	if t.channels == 0 {
		return 0
	}
	return len(t.samples) / t.channels
}

func (t *track) seconds() float64 {
	if t.sampleRate == 0 {
		return 0
	}
	return float64(t.frames()) / float64(t.sampleRate)
}

func readWAV(path string) (*track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}
	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("%s: expected 16-bit samples, got %d", path, dec.BitDepth)
	}
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, errors.New("wav has no channel information")
	}
	t := &track{sampleRate: format.SampleRate, channels: format.NumChannels}
	if info, err := f.Stat(); err == nil {
		t.samples = make([]int16, 0, info.Size()/2)
	}
	buf := &audio.IntBuffer{Format: format, Data: make([]int, chunkSamples), SourceBitDepth: 16}
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		for _, v := range buf.Data[:n] {
			t.samples = append(t.samples, int16(clamp(v)))
		}
	}
	return t, nil
}

func writeWAV(path string, t *track) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, t.sampleRate, 16, t.channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: t.sampleRate, NumChannels: t.channels},
		SourceBitDepth: 16,
	}
	chunk := make([]int, 0, chunkSamples)
	for start := 0; start < len(t.samples); start += chunkSamples {
		end := min(start+chunkSamples, len(t.samples))
		chunk = chunk[:0]
		for _, v := range t.samples[start:end] {
			chunk = append(chunk, int(v))
		}
		buf.Data = chunk
		if err := enc.Write(buf); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode wav: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}

// applyGain scales every sample by gainDB decibels.
func applyGain(t *track, gainDB float64) {
	if gainDB == 0 {
		return
	}
	factor := math.Pow(10, gainDB/20)
	for i, s := range t.samples {
		t.samples[i] = int16(clamp(int(math.Round(float64(s) * factor))))
	}
}

// overlay sums clip into bed starting at frame offset, growing bed as needed.
func overlay(bed, clip *track, offset int) {
	need := (offset + clip.frames()) * bed.channels
	if need > len(bed.samples) {
		bed.samples = append(bed.samples, make([]int16, need-len(bed.samples))...)
	}
	base := offset * bed.channels
	for i, s := range clip.samples[:clip.frames()*clip.channels] {
		bed.samples[base+i] = int16(clamp(int(bed.samples[base+i]) + int(s)))
	}
}

func clamp(v int) int {
	return min(max(v, minInt16), maxInt16)
}

// frameOffset converts a start time to a frame index through whole
// milliseconds.
func frameOffset(startSeconds float64, sampleRate int) int {
	ms := int64(math.Round(startSeconds * 1000))
	if ms < 0 {
		ms = 0
	}
	return int(ms * int64(sampleRate) / 1000)
}
