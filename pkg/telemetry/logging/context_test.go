package logging

import (
	"context"
	"testing"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithClient(ctx, "198.51.100.4")
	ctx = WithRoute(ctx, "/advanced/stream")

	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q", got)
	}
	if got := GetClient(ctx); got != "198.51.100.4" {
		t.Errorf("GetClient() = %q", got)
	}
	if got := GetRoute(ctx); got != "/advanced/stream" {
		t.Errorf("GetRoute() = %q", got)
	}
}

func TestContextKeys_Empty(t *testing.T) {
	ctx := context.Background()

	if GetRequestID(ctx) != "" || GetClient(ctx) != "" || GetRoute(ctx) != "" {
		t.Error("expected empty values from a bare context")
	}
	if attrs := contextAttrs(ctx); len(attrs) != 0 {
		t.Errorf("expected no attrs, got %v", attrs)
	}
}

func TestContextOverwrite(t *testing.T) {
	ctx := WithRequestID(context.Background(), "first")
	ctx = WithRequestID(ctx, "second")

	if got := GetRequestID(ctx); got != "second" {
		t.Errorf("expected latest value, got %q", got)
	}
}
