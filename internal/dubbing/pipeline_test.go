package dubbing_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"redub/internal/dubbing"
	"redub/internal/services"
	"redub/internal/synthesis"
	"redub/internal/translation"
	"redub/internal/voices"
)

type fakeExtractor struct{ calls int }

func (f *fakeExtractor) Extract(_ context.Context, _ string, dest string) error {
	f.calls++
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

type fakeSeparator struct {
	err   error
	calls int
}

func (f *fakeSeparator) Separate(_ context.Context, _ string, outDir string) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	dir := filepath.Join(outDir, "htdemucs", "original")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	vocals := filepath.Join(dir, "vocals.wav")
	background := filepath.Join(dir, "no_vocals.wav")
	for _, p := range []string{vocals, background} {
		if err := os.WriteFile(p, []byte("RIFF"), 0o644); err != nil {
			return "", "", err
		}
	}
	return vocals, background, nil
}

type fakeTranscriber struct {
	segments []dubbing.Segment
	calls    int
}

func (f *fakeTranscriber) Transcribe(context.Context, string) ([]dubbing.Segment, error) {
	f.calls++
	return dubbing.CloneSegments(f.segments), nil
}

type stubCompleter struct {
	reply string
	calls int
}

func (s *stubCompleter) CompleteJSON(context.Context, string, string) (string, error) {
	s.calls++
	return s.reply, nil
}

type fakeTTS struct {
	mu     sync.Mutex
	voices []string
}

func (f *fakeTTS) Name() string      { return "fake" }
func (f *fakeTTS) Extension() string { return ".mp3" }

func (f *fakeTTS) Synthesize(_ context.Context, req synthesis.Request) error {
	f.mu.Lock()
	f.voices = append(f.voices, req.Profile.Voice)
	f.mu.Unlock()
	return os.WriteFile(req.OutputPath, []byte("ID3"+req.Text), 0o644)
}

type fakeMixer struct {
	background string
	segments   []dubbing.Segment
	dest       string
}

func (f *fakeMixer) Mix(_ context.Context, background string, segments []dubbing.Segment, dest string) (string, error) {
	f.background, f.segments, f.dest = background, segments, dest
	return dest, os.WriteFile(dest, []byte("mixed"), 0o644)
}

type fakeMuxer struct {
	video, audio, output string
	calls                int
}

func (f *fakeMuxer) Mux(_ context.Context, video, audio, output string) error {
	f.calls++
	f.video, f.audio, f.output = video, audio, output
	return os.WriteFile(output, []byte("video"), 0o644)
}

type harness struct {
	video       string
	extractor   *fakeExtractor
	separator   *fakeSeparator
	transcriber *fakeTranscriber
	completer   *stubCompleter
	tts         *fakeTTS
	mixer       *fakeMixer
	muxer       *fakeMuxer
	pipeline    *dubbing.Pipeline
}

func newHarness(t *testing.T, reply string, mutate func(*dubbing.Options)) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		video:     filepath.Join(dir, "clip.mp4"),
		extractor: &fakeExtractor{},
		separator: &fakeSeparator{},
		transcriber: &fakeTranscriber{segments: []dubbing.Segment{
			{Start: 0.5, End: 1.7, Text: "Hello"},
			{Start: 2.0, End: 3.1, Text: "How are you"},
			{Start: 4.0, End: 5.0, Text: "Goodbye"},
		}},
		completer: &stubCompleter{reply: reply},
		tts:       &fakeTTS{},
		mixer:     &fakeMixer{},
		muxer:     &fakeMuxer{},
	}
	if err := os.WriteFile(h.video, []byte("mp4"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	opts := dubbing.Options{
		Extractor:   h.extractor,
		Separator:   h.separator,
		Transcriber: h.transcriber,
		Translator:  translation.New(h.completer, nil),
		Synthesizer: synthesis.New(h.tts, 2, nil),
		Mixer:       h.mixer,
		Muxer:       h.muxer,
	}
	if mutate != nil {
		mutate(&opts)
	}
	p, err := dubbing.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.pipeline = p
	return h
}

func TestAnalyzeThenFinish(t *testing.T) {
	h := newHarness(t, `["Xin chào","Bạn khỏe không","Tạm biệt"]`, nil)
	ctx := context.Background()

	pc, err := h.pipeline.Analyze(ctx, h.video)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if pc.RunID == "" {
		t.Fatal("expected run id")
	}
	if pc.WorkDir != filepath.Join(filepath.Dir(h.video), "dubbing_temp", "clip-"+pc.RunID[:8]) {
		t.Fatalf("unexpected work dir %q", pc.WorkDir)
	}
	if len(pc.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(pc.Segments))
	}
	for i, seg := range pc.Segments {
		if seg.AudioPath != "" {
			t.Fatalf("segment %d already has audio", i)
		}
	}
	if !strings.HasSuffix(pc.BackgroundAudioPath, "no_vocals.wav") || !strings.HasSuffix(pc.VocalsAudioPath, "vocals.wav") {
		t.Fatalf("unexpected stems %q %q", pc.VocalsAudioPath, pc.BackgroundAudioPath)
	}
	if _, err := os.Stat(filepath.Join(pc.WorkDir, "original.wav")); err != nil {
		t.Fatalf("expected extracted audio: %v", err)
	}

	pc.Segments[1].Text = "How are you doing"
	out, err := h.pipeline.Finish(ctx, pc, dubbing.FinishRequest{TargetLanguage: "Vietnamese"})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if out != filepath.Join(filepath.Dir(h.video), "dubbed_clip.mp4") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected final video: %v", err)
	}
	if h.mixer.background != pc.BackgroundAudioPath {
		t.Fatalf("mixer got background %q", h.mixer.background)
	}
	if h.mixer.dest != filepath.Join(pc.WorkDir, "mixed_audio.mp3") {
		t.Fatalf("unexpected mix dest %q", h.mixer.dest)
	}
	want := []string{"Xin chào", "Bạn khỏe không", "Tạm biệt"}
	for i, seg := range h.mixer.segments {
		if seg.Text != want[i] {
			t.Fatalf("segment %d text %q, want %q", i, seg.Text, want[i])
		}
		if seg.Start != pc.Segments[i].Start || seg.End != pc.Segments[i].End {
			t.Fatalf("segment %d timing changed", i)
		}
		if !strings.HasPrefix(seg.AudioPath, filepath.Join(pc.WorkDir, "tts_audio")) {
			t.Fatalf("segment %d audio %q outside tts dir", i, seg.AudioPath)
		}
	}
	if pc.Segments[0].AudioPath != "" || pc.Segments[0].Text != "Hello" {
		t.Fatal("Finish mutated the caller's context")
	}
	if h.muxer.video != h.video || h.muxer.audio != h.mixer.dest {
		t.Fatalf("muxer got video=%q audio=%q", h.muxer.video, h.muxer.audio)
	}
	for _, v := range h.tts.voices {
		if v != "vi-VN-HoaiMyNeural" && v != "vi-VN-NamMinhNeural" {
			t.Fatalf("expected a Vietnamese default voice, got %q", v)
		}
	}
}

// copyingExtractor and copyingSeparator pass bytes through so each stem can
// be traced back to the video it came from.
type copyingExtractor struct{}

func (copyingExtractor) Extract(_ context.Context, video, dest string) error {
	data, err := os.ReadFile(video)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

type copyingSeparator struct{}

func (copyingSeparator) Separate(_ context.Context, audio, outDir string) (string, string, error) {
	data, err := os.ReadFile(audio)
	if err != nil {
		return "", "", err
	}
	dir := filepath.Join(outDir, "htdemucs", strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	vocals := filepath.Join(dir, "vocals.wav")
	background := filepath.Join(dir, "no_vocals.wav")
	for _, p := range []string{vocals, background} {
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return "", "", err
		}
	}
	return vocals, background, nil
}

func TestAnalyzeKeepsRunsInOneFolderApart(t *testing.T) {
	h := newHarness(t, `[]`, func(o *dubbing.Options) {
		o.Extractor = copyingExtractor{}
		o.Separator = copyingSeparator{}
	})
	dir := filepath.Dir(h.video)
	first := filepath.Join(dir, "a.mp4")
	second := filepath.Join(dir, "b.mp4")
	for path, content := range map[string]string{first: "AUDIO-A", second: "AUDIO-B"} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	pcA, err := h.pipeline.Analyze(context.Background(), first)
	if err != nil {
		t.Fatalf("Analyze a: %v", err)
	}
	pcB, err := h.pipeline.Analyze(context.Background(), second)
	if err != nil {
		t.Fatalf("Analyze b: %v", err)
	}
	again, err := h.pipeline.Analyze(context.Background(), first)
	if err != nil {
		t.Fatalf("Analyze a again: %v", err)
	}

	if pcA.WorkDir == pcB.WorkDir || pcA.WorkDir == again.WorkDir {
		t.Fatalf("runs share a work dir: %q %q %q", pcA.WorkDir, pcB.WorkDir, again.WorkDir)
	}
	for _, pc := range []*dubbing.PipelineContext{pcA, pcB, again} {
		if filepath.Dir(pc.WorkDir) != filepath.Join(dir, dubbing.DefaultWorkDirName) {
			t.Fatalf("work dir %q not under dubbing_temp", pc.WorkDir)
		}
		if !strings.HasPrefix(pc.BackgroundAudioPath, pc.WorkDir+string(filepath.Separator)) {
			t.Fatalf("background %q outside its work dir %q", pc.BackgroundAudioPath, pc.WorkDir)
		}
	}
	for pc, want := range map[*dubbing.PipelineContext]string{pcA: "AUDIO-A", pcB: "AUDIO-B", again: "AUDIO-A"} {
		for _, stem := range []string{pc.BackgroundAudioPath, pc.VocalsAudioPath} {
			got, err := os.ReadFile(stem)
			if err != nil {
				t.Fatalf("read %s: %v", stem, err)
			}
			if string(got) != want {
				t.Fatalf("%s holds %q, want %q", stem, got, want)
			}
		}
	}
}

func TestFinishCountMismatchKeepsSourceText(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	h := newHarness(t, "", func(o *dubbing.Options) {
		o.Translator = translation.New(&stubCompleter{reply: `["Xin chào","Bạn khỏe không"]`}, logger)
	})
	pc, err := h.pipeline.Analyze(context.Background(), h.video)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := h.pipeline.Finish(context.Background(), pc, dubbing.FinishRequest{
		TargetLanguage: "Vietnamese",
		Voice:          voices.Profile{Voice: "vi-VN-NamMinhNeural"},
	}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(h.mixer.segments) != 3 {
		t.Fatalf("expected 3 segments at mix, got %d", len(h.mixer.segments))
	}
	if got := h.mixer.segments[2].Text; got != "Goodbye" {
		t.Fatalf("expected untranslated tail, got %q", got)
	}
	for _, fragment := range []string{"level=WARN", "event_type=translation_count_mismatch", "expected=3", "received=2"} {
		if !strings.Contains(logBuf.String(), fragment) {
			t.Fatalf("expected %q in log output %q", fragment, logBuf.String())
		}
	}
	for _, v := range h.tts.voices {
		if v != "vi-VN-NamMinhNeural" {
			t.Fatalf("requested voice not used: %q", v)
		}
	}
}

func TestStageFailureCarriesStageAndMarker(t *testing.T) {
	h := newHarness(t, `[]`, nil)
	h.separator.err = services.Wrap(services.ErrSeparation, "separate", "demucs", "exit status 1", nil)

	_, err := h.pipeline.Analyze(context.Background(), h.video)
	if err == nil {
		t.Fatal("expected error")
	}
	stage, ok := services.FailedStage(err)
	if !ok || stage != dubbing.StageSeparate {
		t.Fatalf("expected separate stage, got %q (%v)", stage, ok)
	}
	if !errors.Is(err, services.ErrSeparation) {
		t.Fatalf("marker lost: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "separate stage: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if h.transcriber.calls != 0 {
		t.Fatal("transcriber ran after separation failed")
	}
}

func TestFinishRejectsEmptyContext(t *testing.T) {
	h := newHarness(t, `[]`, nil)
	pc := &dubbing.PipelineContext{WorkDir: t.TempDir(), SourceVideoPath: h.video, BackgroundAudioPath: "bg.wav"}
	_, err := h.pipeline.Finish(context.Background(), pc, dubbing.FinishRequest{TargetLanguage: "Vietnamese"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if h.completer.calls != 0 || h.muxer.calls != 0 {
		t.Fatal("no stage should run for an empty context")
	}
}

func TestFinishTranslatorNotConfigured(t *testing.T) {
	h := newHarness(t, "", func(o *dubbing.Options) {
		o.Translator = translation.New(nil, nil)
	})
	pc, err := h.pipeline.Analyze(context.Background(), h.video)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	_, err = h.pipeline.Finish(context.Background(), pc, dubbing.FinishRequest{TargetLanguage: "Vietnamese"})
	if !errors.Is(err, services.ErrClientNotInitialized) {
		t.Fatalf("expected ErrClientNotInitialized, got %v", err)
	}
	if stage, _ := services.FailedStage(err); stage != dubbing.StageTranslate {
		t.Fatalf("expected translate stage, got %q", stage)
	}
}

func TestRunUsesWorkDirFuncAndMixFormat(t *testing.T) {
	root := t.TempDir()
	var gotRunID string
	h := newHarness(t, `["a","b","c"]`, func(o *dubbing.Options) {
		o.MixFormat = ".WAV"
		o.WorkDir = func(video, runID string) string {
			gotRunID = runID
			return filepath.Join(root, "job")
		}
	})
	output := filepath.Join(root, "final.mp4")
	got, err := h.pipeline.Run(context.Background(), h.video, dubbing.FinishRequest{TargetLanguage: "Vietnamese", OutputPath: output})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != output || h.muxer.output != output {
		t.Fatalf("unexpected output %q", got)
	}
	if gotRunID == "" {
		t.Fatal("work dir func should receive the run id")
	}
	if h.mixer.dest != filepath.Join(root, "job", "mixed_audio.wav") {
		t.Fatalf("unexpected mix dest %q", h.mixer.dest)
	}
}

func TestRunWithoutSpeechStopsAfterTranscription(t *testing.T) {
	h := newHarness(t, `[]`, nil)
	h.transcriber.segments = nil
	_, err := h.pipeline.Run(context.Background(), h.video, dubbing.FinishRequest{TargetLanguage: "Vietnamese"})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
	if h.completer.calls != 0 {
		t.Fatal("translation should not run without speech")
	}
}

func TestAnalyzeKeepsEngineOrder(t *testing.T) {
	h := newHarness(t, `[]`, nil)
	h.transcriber.segments = []dubbing.Segment{
		{Start: 3, End: 4, Text: "later"},
		{Start: 1, End: 2, Text: "earlier"},
	}
	pc, err := h.pipeline.Analyze(context.Background(), h.video)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if pc.Segments[0].Text != "later" || pc.Segments[1].Text != "earlier" {
		t.Fatalf("segments were reordered: %#v", pc.Segments)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := dubbing.New(dubbing.Options{Extractor: &fakeExtractor{}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "muxer") || !strings.Contains(err.Error(), "separator") {
		t.Fatalf("expected missing names in %v", err)
	}
}

func TestLockWorkDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "work")
	unlock, err := dubbing.LockWorkDir(dir)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := dubbing.LockWorkDir(dir); !errors.Is(err, dubbing.ErrWorkDirBusy) {
		t.Fatalf("expected ErrWorkDirBusy, got %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	unlock, err = dubbing.LockWorkDir(dir)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	_ = unlock()
}
