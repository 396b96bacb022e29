package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"redub/internal/config"
	"redub/internal/services"
)

const userAgent = "redub/0.1.0"

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyAnalyzed(ctx context.Context, videoPath, sessionID string, segments int) error
	NotifyDubCompleted(ctx context.Context, videoPath, outputPath, targetLanguage string, elapsed time.Duration) error
	NotifyDubFailed(ctx context.Context, videoPath string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyAnalyzed(ctx context.Context, videoPath, sessionID string, segments int) error {
	data := payload{
		title:   "redub - Ready for Review",
		message: fmt.Sprintf("📝 %s: %d segments transcribed\nSession %s", displayName(videoPath), segments, sessionID),
		tags:    []string{"redub", "analyze", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDubCompleted(ctx context.Context, videoPath, outputPath, targetLanguage string, elapsed time.Duration) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "🎙️ Dubbed %s into %s", displayName(videoPath), strings.TrimSpace(targetLanguage))
	if elapsed > 0 {
		fmt.Fprintf(&builder, " in %s", elapsed.Round(time.Second))
	}
	if outputPath = strings.TrimSpace(outputPath); outputPath != "" {
		fmt.Fprintf(&builder, "\n%s", outputPath)
	}
	data := payload{
		title:   "redub - Dub Complete",
		message: builder.String(),
		tags:    []string{"redub", "dub", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDubFailed(ctx context.Context, videoPath string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "❌ Dub failed: %s", displayName(videoPath))
	if stage, ok := services.FailedStage(err); ok {
		fmt.Fprintf(&builder, " (%s stage)", stage)
	}
	fmt.Fprintf(&builder, "\n%s", err.Error())
	data := payload{
		title:    "redub - Error",
		message:  builder.String(),
		tags:     []string{"redub", "error", "alert"},
		priority: "high",
	}
	// The command context may already be cancelled by a stage timeout.
	return n.send(context.WithoutCancel(ctx), data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "redub - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"redub", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayName(videoPath string) string {
	videoPath = strings.TrimSpace(videoPath)
	if videoPath == "" {
		return "video"
	}
	return filepath.Base(videoPath)
}

type noopService struct{}

func (noopService) NotifyAnalyzed(context.Context, string, string, int) error { return nil }
func (noopService) NotifyDubCompleted(context.Context, string, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyDubFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
