package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"weatherplugin/internal/config"
)

func TestNewServer_Success(t *testing.T) {
	srv := newTestServer(t)

	if srv.Validator == nil {
		t.Error("expected Validator to be initialized")
	}
	if srv.Router() == nil || srv.Handler() == nil {
		t.Error("expected router to be initialized")
	}
}

func TestNewServer_NilConfig(t *testing.T) {
	if _, err := NewServer(nil, discardLogger()); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewServer_NilLogger(t *testing.T) {
	if _, err := NewServer(&config.Config{}, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestServer_ShutdownClosesOutboundClients(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	client := upstream.Client()
	resp, err := client.Get(upstream.URL)
	if err != nil {
		t.Fatalf("warm-up request failed: %v", err)
	}
	resp.Body.Close()

	srv := newTestServer(t)
	srv.OutboundClients = []*http.Client{client}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}
