package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookwatch/internal/config"
	"bookwatch/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventBatchStarted, notifications.Payload{"total": 3}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "batch started",
			event:         notifications.EventBatchStarted,
			payload:       notifications.Payload{"total": 3},
			expectTitle:   "Bookwatch - Batch Started",
			expectMessage: "Auto-download started for 3 books",
			expectTags:    "bookwatch,batch,started",
		},
		{
			name:          "batch completed with failures",
			event:         notifications.EventBatchCompleted,
			payload:       notifications.Payload{"summary": "2/3 queued · 0 skipped · 1 failed", "failed": 1},
			expectTitle:   "Bookwatch - Batch Complete (with errors)",
			expectMessage: "2/3 queued · 0 skipped · 1 failed",
			expectTags:    "bookwatch,batch,completed",
		},
		{
			name:          "queued",
			event:         notifications.EventAcquisitionQueued,
			payload:       notifications.Payload{"book": "Dune", "release": "Dune.epub"},
			expectTitle:   "Bookwatch - Download Queued",
			expectMessage: "📚 Queued: Dune\nRelease: Dune.epub",
			expectTags:    "bookwatch,download,queued",
		},
		{
			name:          "info",
			event:         notifications.EventAcquisitionInfo,
			payload:       notifications.Payload{"book": "Dune", "reason": "No releases found", "status": "no_match"},
			expectTitle:   "Bookwatch - Not Downloaded",
			expectMessage: "ℹ️ No releases found: Dune",
			expectTags:    "bookwatch,download,no_match",
		},
		{
			name:           "error",
			event:          notifications.EventError,
			payload:        notifications.Payload{"context": "release search", "error": errors.New("connection refused")},
			expectTitle:    "Bookwatch - Error",
			expectMessage:  "❌ Error with release search: connection refused",
			expectTags:     "bookwatch,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, _ := io.ReadAll(r.Body)
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for disabled event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Batch = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{
		notifications.EventBatchStarted,
		notifications.EventBatchCompleted,
		notifications.EventError,
		notifications.Event("unknown"),
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"total": 1}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestSeverityOf(t *testing.T) {
	if notifications.SeverityOf(notifications.EventError) != notifications.SeverityError {
		t.Fatal("expected error severity")
	}
	if notifications.SeverityOf(notifications.EventAcquisitionInfo) != notifications.SeverityInfo {
		t.Fatal("expected info severity")
	}
}
