package separation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"redub/internal/services"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "original.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeDemucs mimics demucs' output layout.
func fakeDemucs(t *testing.T, stems ...string) commandRunner {
	return func(_ context.Context, _ string, args ...string) error {
		var outDir, model string
		for i := 0; i < len(args)-1; i++ {
			switch args[i] {
			case "-o":
				outDir = args[i+1]
			case "-n":
				model = args[i+1]
			}
		}
		audio := args[len(args)-1]
		track := strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
		dir := filepath.Join(outDir, model, track)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, stem := range stems {
			if err := os.WriteFile(filepath.Join(dir, stem+".wav"), []byte("RIFF"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		return nil
	}
}

func TestSeparateLocatesStems(t *testing.T) {
	audio := writeAudio(t)
	out := filepath.Join(t.TempDir(), "separation")

	var gotName string
	var gotArgs []string
	runner := fakeDemucs(t, "vocals", "no_vocals")
	sep := New(Options{Device: "cpu"}, nil).WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return runner(ctx, name, args...)
	})

	stems, err := sep.Separate(context.Background(), audio, out)
	if err != nil {
		t.Fatalf("Separate returned error: %v", err)
	}
	if gotName != "python3" {
		t.Fatalf("unexpected interpreter %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-m demucs.separate", "--two-stems=vocals", "-n htdemucs", "-d cpu", "-o " + out} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
	if stems.Vocals != filepath.Join(out, "htdemucs", "original", "vocals.wav") {
		t.Fatalf("unexpected vocals path %q", stems.Vocals)
	}
	if stems.Background != filepath.Join(out, "htdemucs", "original", "no_vocals.wav") {
		t.Fatalf("unexpected background path %q", stems.Background)
	}
}

func TestSeparateMissingStem(t *testing.T) {
	audio := writeAudio(t)
	sep := New(Options{}, nil).WithCommandRunner(fakeDemucs(t, "vocals"))
	_, err := sep.Separate(context.Background(), audio, t.TempDir())
	if !errors.Is(err, services.ErrSeparation) {
		t.Fatalf("expected ErrSeparation, got %v", err)
	}
	if !strings.Contains(err.Error(), "no_vocals.wav") {
		t.Fatalf("expected missing stem in message: %v", err)
	}
}

func TestSeparateCarriesToolOutput(t *testing.T) {
	audio := writeAudio(t)
	sep := New(Options{}, nil).WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("python3: exit status 1: CUDA out of memory")
	})
	_, err := sep.Separate(context.Background(), audio, t.TempDir())
	if !errors.Is(err, services.ErrSeparation) || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected separation error with captured output, got %v", err)
	}
}

func TestSeparateTimeoutAppliesDeadline(t *testing.T) {
	audio := writeAudio(t)
	sep := New(Options{Timeout: time.Minute}, nil).WithCommandRunner(func(ctx context.Context, _ string, _ ...string) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("expected deadline")
		}
		return ctx.Err()
	})
	_, err := sep.Separate(context.Background(), audio, t.TempDir())
	if err == nil || strings.Contains(err.Error(), "expected deadline") {
		t.Fatalf("expected missing-stems failure after deadline-aware run, got %v", err)
	}
}

func TestSeparateMissingInput(t *testing.T) {
	sep := New(Options{}, nil)
	_, err := sep.Separate(context.Background(), filepath.Join(t.TempDir(), "none.wav"), t.TempDir())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
