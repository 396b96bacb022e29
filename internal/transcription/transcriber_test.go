package transcription

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"redub/internal/services"
)

type fakeWorker struct {
	starts int
	args   []string
	handle func(workerRequest) workerResponse
}

func (f *fakeWorker) start(_ context.Context, _ string, args ...string) (*workerProcess, error) {
	f.starts++
	f.args = args
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()
	go func() {
		defer respW.Close()
		enc := json.NewEncoder(respW)
		if err := enc.Encode(workerResponse{Ready: true}); err != nil {
			return
		}
		scanner := bufio.NewScanner(reqR)
		for scanner.Scan() {
			var req workerRequest
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				return
			}
			if err := enc.Encode(f.handle(req)); err != nil {
				return
			}
		}
	}()
	return &workerProcess{
		stdin:  reqW,
		stdout: bufio.NewReader(respR),
		stderr: func() string { return "worker stderr" },
		stop: func() error {
			_ = reqR.Close()
			_ = respW.Close()
			return nil
		},
	}, nil
}

func newTestEngine(w *fakeWorker) *WhisperEngine {
	engine := NewWhisperEngine(WhisperOptions{Language: "en"}, nil)
	engine.start = w.start
	return engine
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocals.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWhisperWorkerLoadsOnceAndTrims(t *testing.T) {
	worker := &fakeWorker{handle: func(req workerRequest) workerResponse {
		return workerResponse{ID: req.ID, Segments: []RawSegment{
			{Start: 2.0, End: 5.0, Text: "  Hello there "},
			{Start: 5.5, End: 6.0, Text: "\tbye\n"},
		}}
	}}
	engine := newTestEngine(worker)
	tr := New(engine, nil)
	defer tr.Close()
	audio := writeAudio(t)

	for range 2 {
		segments, err := tr.Transcribe(context.Background(), audio)
		if err != nil {
			t.Fatalf("Transcribe returned error: %v", err)
		}
		if len(segments) != 2 {
			t.Fatalf("expected 2 segments, got %d", len(segments))
		}
		if segments[0].Text != "Hello there" || segments[1].Text != "bye" {
			t.Fatalf("text not trimmed: %#v", segments)
		}
		if segments[0].Start != 2.0 || segments[0].End != 5.0 || segments[0].AudioPath != "" {
			t.Fatalf("unexpected first segment %#v", segments[0])
		}
	}
	if worker.starts != 1 {
		t.Fatalf("expected model to load once, worker started %d times", worker.starts)
	}
	if worker.args[0] != "-c" || worker.args[2] != "base" || worker.args[4] != "en" {
		t.Fatalf("unexpected worker args %v", worker.args[:1])
	}
}

func TestTranscribeSilenceIsEmpty(t *testing.T) {
	worker := &fakeWorker{handle: func(req workerRequest) workerResponse {
		return workerResponse{ID: req.ID}
	}}
	segments, err := New(newTestEngine(worker), nil).Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("expected no error for silence, got %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected empty result, got %#v", segments)
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	worker := &fakeWorker{handle: func(req workerRequest) workerResponse {
		return workerResponse{ID: req.ID, Error: "RuntimeError: bad audio"}
	}}
	_, err := New(newTestEngine(worker), nil).Transcribe(context.Background(), writeAudio(t))
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad audio") {
		t.Fatalf("expected engine detail in error: %v", err)
	}
}

func TestTranscribeMissingAudio(t *testing.T) {
	worker := &fakeWorker{}
	_, err := New(newTestEngine(worker), nil).Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if worker.starts != 0 {
		t.Fatal("worker must not start for a missing file")
	}
}

func TestTranscribeCancelRestartsWorker(t *testing.T) {
	received := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	var calls atomic.Int32
	worker := &fakeWorker{handle: func(req workerRequest) workerResponse {
		if calls.Add(1) == 1 {
			received <- struct{}{}
			<-release
		}
		return workerResponse{ID: req.ID, Segments: []RawSegment{{Start: 0, End: 1, Text: "ok"}}}
	}}
	engine := newTestEngine(worker)
	audio := writeAudio(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-received
		cancel()
	}()
	_, err := New(engine, nil).Transcribe(ctx, audio)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	segments, err := New(engine, nil).Transcribe(context.Background(), audio)
	if err != nil || len(segments) != 1 {
		t.Fatalf("expected restarted worker to answer, got %v %#v", err, segments)
	}
	if worker.starts != 2 {
		t.Fatalf("expected worker restart, starts=%d", worker.starts)
	}
}

func TestOpenAIEngine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("unexpected response_format %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("unexpected language %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task":"transcribe","language":"english","duration":10,"text":"Hello there",
			"segments":[{"id":0,"seek":0,"start":2.0,"end":5.0,"text":" Hello there","tokens":[1],"temperature":0,
			"avg_logprob":-0.1,"compression_ratio":1,"no_speech_prob":0.01,"transient":false}]}`))
	}))
	defer srv.Close()

	engine := NewOpenAIEngine("test-key", srv.URL+"/v1", "en")
	segments, err := New(engine, nil).Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "Hello there" || segments[0].Start != 2.0 {
		t.Fatalf("unexpected segments %#v", segments)
	}
}
