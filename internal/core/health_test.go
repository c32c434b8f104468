package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type mockHealthProbe struct {
	name  string
	err   error
	delay time.Duration
	panic bool
}

func (m *mockHealthProbe) Name() string { return m.name }

func (m *mockHealthProbe) Check(ctx context.Context) error {
	if m.panic {
		panic("probe exploded")
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

func runHealth(t *testing.T, probes ...HealthProbe) (int, healthResponse) {
	t.Helper()
	srv := newTestServer(t)
	srv.HealthProbes = probes

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, resp
}

func TestHandleHealth_NoProbes(t *testing.T) {
	code, resp := runHealth(t)
	if code != http.StatusOK || resp.Status != "healthy" || len(resp.Components) != 0 {
		t.Errorf("unexpected response %d %+v", code, resp)
	}
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	code, resp := runHealth(t, &mockHealthProbe{name: "qweather-geo"}, &mockHealthProbe{name: "forecast-page"})
	if code != http.StatusOK || resp.Status != "healthy" {
		t.Fatalf("unexpected response %d %+v", code, resp)
	}
	for _, name := range []string{"qweather-geo", "forecast-page"} {
		if resp.Components[name].Status != "healthy" {
			t.Errorf("component %s: %+v", name, resp.Components[name])
		}
	}
}

func TestHandleHealth_OpenBreakerIsUnhealthy(t *testing.T) {
	code, resp := runHealth(t,
		&mockHealthProbe{name: "qweather-geo"},
		&mockHealthProbe{name: "forecast-page", err: errors.New("circuit breaker is open")},
	)
	if code != http.StatusServiceUnavailable || resp.Status != "unhealthy" {
		t.Fatalf("unexpected response %d %+v", code, resp)
	}
	if got := resp.Components["forecast-page"]; got.Status != "unhealthy" || got.Message != "circuit breaker is open" {
		t.Errorf("unexpected component %+v", got)
	}
	if resp.Components["qweather-geo"].Status != "healthy" {
		t.Error("healthy probe reported unhealthy")
	}
}

func TestHandleHealth_PanickingProbe(t *testing.T) {
	code, resp := runHealth(t, &mockHealthProbe{name: "ip-geo", panic: true})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp.Components["ip-geo"].Message != "probe panicked: probe exploded" {
		t.Errorf("unexpected message %q", resp.Components["ip-geo"].Message)
	}
}

func TestHandleHealth_SlowProbeTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the health deadline")
	}
	code, resp := runHealth(t, &mockHealthProbe{name: "slow", delay: 10 * time.Second})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp.Components["slow"].Status != "unhealthy" {
		t.Errorf("unexpected component %+v", resp.Components["slow"])
	}
}
