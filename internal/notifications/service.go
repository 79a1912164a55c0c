package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookwatch/internal/config"
)

const userAgent = "Bookwatch-Go/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventBatchStarted      Event = "batch_started"
	EventBatchCompleted    Event = "batch_completed"
	EventAcquisitionQueued Event = "acquisition_queued"
	EventAcquisitionInfo   Event = "acquisition_info"
	EventError             Event = "error"
	EventRescanTriggered   Event = "rescan_triggered"
	EventTest              Event = "test"
)

// Severity reports how an event is surfaced to the user.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// SeverityOf returns the severity of an event.
func SeverityOf(event Event) Severity {
	if event == EventError {
		return SeverityError
	}
	return SeverityInfo
}

// Payload carries event-specific values.
type Payload map[string]any

// Service defines the notification surface exposed to acquisition components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		batch:    cfg.Notifications.Batch,
		errors:   cfg.Notifications.Errors,
	}
}

// NewNoop returns a service that discards every event.
func NewNoop() Service { return noopService{} }

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	batch    bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil {
		return nil
	}
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBatchStarted:
		if !n.batch {
			return message{}, false
		}
		label := payload.text("label")
		if label == "" {
			label = "Auto-download"
		}
		return message{
			title: "Bookwatch - Batch Started",
			body:  fmt.Sprintf("%s started for %d books", label, payload.integer("total")),
			tags:  []string{"bookwatch", "batch", "started"},
		}, true
	case EventBatchCompleted:
		if !n.batch {
			return message{}, false
		}
		title := "Bookwatch - Batch Complete"
		if payload.integer("failed") > 0 {
			title = "Bookwatch - Batch Complete (with errors)"
		}
		return message{
			title: title,
			body:  payload.text("summary"),
			tags:  []string{"bookwatch", "batch", "completed"},
		}, true
	case EventAcquisitionQueued:
		body := fmt.Sprintf("📚 Queued: %s", payload.text("book"))
		if release := payload.text("release"); release != "" {
			body = fmt.Sprintf("%s\nRelease: %s", body, release)
		}
		return message{
			title: "Bookwatch - Download Queued",
			body:  body,
			tags:  []string{"bookwatch", "download", "queued"},
		}, true
	case EventAcquisitionInfo:
		return message{
			title: "Bookwatch - Not Downloaded",
			body:  fmt.Sprintf("ℹ️ %s: %s", payload.text("reason"), payload.text("book")),
			tags:  []string{"bookwatch", "download", payload.text("status")},
		}, true
	case EventError:
		if !n.errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payload.text("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if errText := payload.text("error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Bookwatch - Error",
			body:     builder.String(),
			tags:     []string{"bookwatch", "error", "alert"},
			priority: "high",
		}, true
	case EventRescanTriggered:
		return message{
			title: "Bookwatch - Library Rescan",
			body:  fmt.Sprintf("✅ %d downloads completed, rescanning %s", payload.integer("completed"), payload.text("entity")),
			tags:  []string{"bookwatch", "scan", "started"},
		}, true
	case EventTest:
		return message{
			title:    "Bookwatch - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"bookwatch", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if tags := compactTags(data.tags); len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
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

func compactTags(tags []string) []string {
	out := tags[:0:0]
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Payload) integer(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
