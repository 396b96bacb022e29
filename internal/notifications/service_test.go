package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"redub/internal/config"
	"redub/internal/notifications"
	"redub/internal/services"
)

type captured struct {
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	var got captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		got.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func serviceFor(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeoutSeconds = 5
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyDubCompleted(context.Background(), "clip.mp4", "dubbed_clip.mp4", "Spanish", time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config notifier returned %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	failure := services.AsStage("mix", services.Wrap(services.ErrMix, "mix", "encode", "", errors.New("ffmpeg exited 1")))

	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "analyzed",
			send: func(s notifications.Service) error {
				return s.NotifyAnalyzed(context.Background(), "/videos/talk.mp4", "abc123", 42)
			},
			expectTitle:   "redub - Ready for Review",
			expectMessage: "📝 talk.mp4: 42 segments transcribed\nSession abc123",
			expectTags:    "redub,analyze,review",
		},
		{
			name: "completed",
			send: func(s notifications.Service) error {
				return s.NotifyDubCompleted(context.Background(), "/videos/talk.mp4", "/videos/dubbed_talk.mp4", "Vietnamese", 95*time.Second)
			},
			expectTitle:   "redub - Dub Complete",
			expectMessage: "🎙️ Dubbed talk.mp4 into Vietnamese in 1m35s\n/videos/dubbed_talk.mp4",
			expectTags:    "redub,dub,completed",
		},
		{
			name: "failed with stage",
			send: func(s notifications.Service) error {
				return s.NotifyDubFailed(context.Background(), "/videos/talk.mp4", failure)
			},
			expectTitle:    "redub - Error",
			expectMessage:  "❌ Dub failed: talk.mp4 (mix stage)\n" + failure.Error(),
			expectTags:     "redub,error,alert",
			expectPriority: "high",
		},
		{
			name: "test",
			send: func(s notifications.Service) error {
				return s.TestNotification(context.Background())
			},
			expectTitle:    "redub - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "redub,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newCaptureServer(t, http.StatusOK)
			if err := tc.send(serviceFor(server.URL)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNotifyDubFailedSkipsCancellation(t *testing.T) {
	server, got := newCaptureServer(t, http.StatusOK)
	svc := serviceFor(server.URL)

	if err := svc.NotifyDubFailed(context.Background(), "clip.mp4", context.Canceled); err != nil {
		t.Fatalf("NotifyDubFailed: %v", err)
	}
	if err := svc.NotifyDubFailed(context.Background(), "clip.mp4", nil); err != nil {
		t.Fatalf("NotifyDubFailed nil: %v", err)
	}
	if got.calls != 0 {
		t.Fatalf("expected no requests, got %d", got.calls)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusForbidden)
	err := serviceFor(server.URL).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
