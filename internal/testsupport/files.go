package testsupport

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// Tone describes a constant-amplitude square wave used as a WAV fixture.
type Tone struct {
	SampleRate int
	Channels   int
	Seconds    float64
	Amplitude  int
}

// WriteWAV writes a 16-bit PCM WAV fixture. A zero amplitude writes silence.
func WriteWAV(t testing.TB, path string, tone Tone) {
	t.Helper()

	if tone.SampleRate <= 0 {
		tone.SampleRate = 8000
	}
	if tone.Channels <= 0 {
		tone.Channels = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	frames := int(math.Round(tone.Seconds * float64(tone.SampleRate)))
	data := make([]int, frames*tone.Channels)
	for frame := range frames {
		value := tone.Amplitude
		if (frame/20)%2 == 1 {
			value = -tone.Amplitude
		}
		for ch := range tone.Channels {
			data[frame*tone.Channels+ch] = value
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, tone.SampleRate, 16, tone.Channels, 1)
	if err := enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: tone.SampleRate, NumChannels: tone.Channels},
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
}

// ReadWAV loads a 16-bit PCM WAV and returns its interleaved samples.
func ReadWAV(t testing.TB, path string) (samples []int, sampleRate, channels int) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return buf.Data, buf.Format.SampleRate, buf.Format.NumChannels
}

// CopyRunner is a command runner that copies the file after "-i" to the
// last argument, standing in for an ffmpeg transcode whose input is already
// in the target format.
func CopyRunner(_ context.Context, _ string, args ...string) error {
	var src string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-i" {
			src = args[i+1]
		}
	}
	dst := args[len(args)-1]
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
