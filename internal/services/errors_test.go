package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bookwatch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "client", "search releases", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"client", "search releases", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected default transport marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestErrorHint(t *testing.T) {
	if hint := services.ErrorHint(nil); hint != "" {
		t.Fatalf("expected empty hint for nil, got %q", hint)
	}
	timeout := services.Wrap(services.ErrTimeout, "client", "poll", "", nil)
	if hint := services.ErrorHint(timeout); !strings.Contains(hint, "timed out") {
		t.Fatalf("unexpected timeout hint %q", hint)
	}
	if hint := services.ErrorHint(errors.New("other")); hint != "check logs for details" {
		t.Fatalf("unexpected default hint %q", hint)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := services.WithBatchID(context.Background(), "auto:1")
	ctx = services.WithEntityID(ctx, "7")
	ctx = services.WithRequestID(ctx, "req")
	if id, ok := services.BatchIDFromContext(ctx); !ok || id != "auto:1" {
		t.Fatalf("batch id = %q, %v", id, ok)
	}
	if id, ok := services.EntityIDFromContext(ctx); !ok || id != "7" {
		t.Fatalf("entity id = %q, %v", id, ok)
	}
	if id, ok := services.RequestIDFromContext(ctx); !ok || id != "req" {
		t.Fatalf("request id = %q, %v", id, ok)
	}
	if ctx2 := services.WithBatchID(context.Background(), ""); ctx2 != context.Background() {
		t.Fatal("empty batch id should not wrap context")
	}
}
