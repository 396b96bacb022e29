package transcription

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"redub/internal/logging"
)

//go:embed whisper_worker.py
var workerScript string

// WhisperOptions configures the local whisper worker.
type WhisperOptions struct {
	Python   string
	Model    string
	Device   string
	Language string
}

// workerProcess is a running worker: requests go to stdin, one JSON
// response per line comes back on stdout.
type workerProcess struct {
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stop   func() error
	stderr func() string
}

type workerStarter func(ctx context.Context, python string, args ...string) (*workerProcess, error)

type workerRequest struct {
	ID        int    `json:"id"`
	AudioPath string `json:"audio_path"`
}

type workerResponse struct {
	ID       int          `json:"id"`
	Ready    bool         `json:"ready"`
	Segments []RawSegment `json:"segments"`
	Error    string       `json:"error"`
}

// WhisperEngine runs whisper in a persistent Python process so the model is
// loaded once per engine. Calls are serialized.
type WhisperEngine struct {
	opts   WhisperOptions
	logger *slog.Logger
	start  workerStarter

	mu     sync.Mutex
	worker *workerProcess
	nextID int
}

// NewWhisperEngine constructs an engine; the worker starts on first use.
func NewWhisperEngine(opts WhisperOptions, logger *slog.Logger) *WhisperEngine {
	if strings.TrimSpace(opts.Python) == "" {
		opts.Python = "python3"
	}
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = "base"
	}
	return &WhisperEngine{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "whisper"),
		start:  startWorker,
	}
}

// Name identifies the engine in logs and errors.
func (w *WhisperEngine) Name() string { return "whisper" }

// Transcribe sends one request to the worker, starting it if needed.
func (w *WhisperEngine) Transcribe(ctx context.Context, audioPath string) ([]RawSegment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureWorkerLocked(ctx); err != nil {
		return nil, err
	}
	w.nextID++
	req := workerRequest{ID: w.nextID, AudioPath: audioPath}
	resp, err := w.roundTripLocked(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("whisper worker: %s", resp.Error)
	}
	if resp.ID != req.ID {
		w.stopLocked()
		return nil, fmt.Errorf("whisper worker: response id %d does not match request %d", resp.ID, req.ID)
	}
	return resp.Segments, nil
}

// Close stops the worker process.
func (w *WhisperEngine) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopLocked()
}

func (w *WhisperEngine) ensureWorkerLocked(ctx context.Context) error {
	if w.worker != nil {
		return nil
	}
	w.logger.Info("starting whisper worker",
		logging.String("model", w.opts.Model),
		logging.String("device", w.opts.Device),
	)
	proc, err := w.start(context.WithoutCancel(ctx), w.opts.Python, "-c", workerScript, w.opts.Model, w.opts.Device, w.opts.Language)
	if err != nil {
		return fmt.Errorf("start whisper worker: %w", err)
	}
	w.worker = proc
	ready, err := w.readLocked(ctx)
	if err != nil {
		return fmt.Errorf("whisper worker did not become ready: %w", err)
	}
	if !ready.Ready {
		w.stopLocked()
		return errors.New("whisper worker sent an unexpected greeting")
	}
	return nil
}

func (w *WhisperEngine) roundTripLocked(ctx context.Context, req workerRequest) (workerResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return workerResponse{}, err
	}
	if _, err := w.worker.stdin.Write(append(payload, '\n')); err != nil {
		detail := w.worker.stderr()
		w.stopLocked()
		return workerResponse{}, fmt.Errorf("whisper worker write: %w: %s", err, detail)
	}
	return w.readLocked(ctx)
}

// readLocked waits for one response line. Cancellation kills the worker,
// since a half-read stream cannot be reused.
func (w *WhisperEngine) readLocked(ctx context.Context) (workerResponse, error) {
	type result struct {
		line []byte
		err  error
	}
	proc := w.worker
	done := make(chan result, 1)
	go func() {
		line, err := proc.stdout.ReadBytes('\n')
		done <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		w.stopLocked()
		return workerResponse{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			detail := proc.stderr()
			w.stopLocked()
			return workerResponse{}, fmt.Errorf("whisper worker exited: %w: %s", res.err, detail)
		}
		var resp workerResponse
		dec := json.NewDecoder(bytes.NewReader(res.line))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&resp); err != nil {
			w.stopLocked()
			return workerResponse{}, fmt.Errorf("whisper worker reply: %w", err)
		}
		return resp, nil
	}
}

func (w *WhisperEngine) stopLocked() error {
	if w.worker == nil {
		return nil
	}
	proc := w.worker
	w.worker = nil
	_ = proc.stdin.Close()
	return proc.stop()
}

func startWorker(ctx context.Context, python string, args ...string) (*workerProcess, error) {
	cmd := exec.CommandContext(ctx, python, args...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &workerProcess{
		stdin:  stdin,
		stdout: bufio.NewReaderSize(stdout, 1<<20),
		stderr: stderr.String,
		stop: func() error {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil
		},
	}, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		b.buf = b.buf[len(b.buf)-b.limit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}
