package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobCompleted(context.Background(), "job-1", "/clips/a.wav", time.Second); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		_ = r.Body.Close()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RequestTimeout = 5
	cfg.Notifications.Completion = true
	cfg.Notifications.Errors = true
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyJobCompleted(context.Background(), "job-1", "/clips/voice.wav", 90*time.Second); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.title != "Murmur - Job Complete" {
		t.Fatalf("unexpected title %q", captured.title)
	}
	if captured.body != "Analysis complete: /clips/voice.wav (1m30s)" {
		t.Fatalf("unexpected message %q", captured.body)
	}
	if captured.tags != "murmur,job,completed" {
		t.Fatalf("unexpected tags %q", captured.tags)
	}

	if err := svc.NotifyJobFailed(context.Background(), "job-2", "semantics", "scorer exited with code 1"); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.title != "Murmur - Job Failed" {
		t.Fatalf("unexpected title %q", captured.title)
	}
	if captured.body != "Job job-2 failed during semantics: scorer exited with code 1" {
		t.Fatalf("unexpected message %q", captured.body)
	}
	if captured.priority != "high" {
		t.Fatalf("expected high priority, got %q", captured.priority)
	}
}

func TestNtfyServiceHonorsEventToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completion = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyJobCompleted(context.Background(), "job-1", "/clips/a.wav", time.Second); err != nil {
		t.Fatalf("suppressed completion must not error: %v", err)
	}
	if err := svc.NotifyJobFailed(context.Background(), "job-1", "transcription", "boom"); err != nil {
		t.Fatalf("suppressed error must not error: %v", err)
	}
}
