package core

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the whole health check.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is a named dependency check. The outbound clients' circuit
// breakers implement it, so /health reports an upstream as unhealthy while
// its breaker is open.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

type probeResult struct {
	name string
	err  error
}

// HandleHealth runs every probe concurrently under healthCheckTimeout and
// answers 200 when all pass, 503 otherwise. Probes that have not answered by
// the deadline count as failed.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	results := make(chan probeResult, len(s.HealthProbes))
	for _, p := range s.HealthProbes {
		go func() {
			results <- probeResult{name: p.Name(), err: runProbe(ctx, p)}
		}()
	}

	components := make(map[string]componentStatus, len(s.HealthProbes))
	for range s.HealthProbes {
		select {
		case res := <-results:
			components[res.name] = statusOf(res.err)
		case <-ctx.Done():
		}
	}
	for _, p := range s.HealthProbes {
		if _, ok := components[p.Name()]; !ok {
			components[p.Name()] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		}
	}

	resp := healthResponse{Status: "healthy", Components: components}
	status := http.StatusOK
	for _, c := range components {
		if c.Status != "healthy" {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			break
		}
	}
	JSON(w, r, status, resp)
}

func runProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("probe panicked: %v", rvr)
		}
	}()
	return p.Check(ctx)
}

func statusOf(err error) componentStatus {
	if err != nil {
		return componentStatus{Status: "unhealthy", Message: err.Error()}
	}
	return componentStatus{Status: "healthy"}
}
