package core

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"weatherplugin/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Environment: "local",
		Server: config.ServerConfig{
			RequestTimeout:     5 * time.Second,
			CorsAllowedOrigins: []string{"*"},
		},
	}
	srv, err := NewServer(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

type recordedRequest struct {
	method, endpoint, status string
	duration                 time.Duration
}

type mockMetricsCollector struct {
	mu    sync.Mutex
	calls []recordedRequest
}

func (m *mockMetricsCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedRequest{method, endpoint, status, duration})
}
