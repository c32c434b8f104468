package types

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}
}

func TestClientAddrRoundTrip(t *testing.T) {
	ctx := WithClientAddr(context.Background(), "203.0.113.7")
	if got := GetClientAddr(ctx); got != "203.0.113.7" {
		t.Errorf("GetClientAddr() = %q, want %q", got, "203.0.113.7")
	}
	if got := GetClientAddr(context.Background()); got != "" {
		t.Errorf("GetClientAddr() on empty context = %q, want empty", got)
	}
}
