// Package health provides liveness and readiness probes plus the public
// status endpoint. Checks run on demand when a probe endpoint is hit, each
// under its own timeout.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
)

// CheckFunc is a health check function. It should return nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready     atomic.Bool
	liveness  []check
	readiness []check
}

// New creates a Health instance. The service starts not ready; call
// SetReady(true) once initialization completes. Checks must be registered
// before the endpoints are served.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that decides whether the process is
// alive at all (e.g. goroutine count).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a check that decides whether the service can
// take traffic (e.g. database connectivity).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown to drain traffic before the listener stops.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

func runChecks(ctx context.Context, checks []check) map[string]string {
	results := make(map[string]string, len(checks))
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		if err := c.fn(checkCtx); err != nil {
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
		cancel()
	}
	return results
}

func allOK(results map[string]string) bool {
	for _, v := range results {
		if v != "ok" {
			return false
		}
	}
	return true
}

func writeStatus(w http.ResponseWriter, healthy bool, body any) {
	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	results := runChecks(r.Context(), h.liveness)
	healthy := allOK(results)

	status := "ok"
	if !healthy {
		status = "unhealthy"
	}
	writeStatus(w, healthy, map[string]any{"status": status, "checks": results})
}

// ReadyEndpoint serves the readiness probe. It fails while the manual gate
// is down, regardless of check results.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	results := runChecks(r.Context(), h.readiness)
	healthy := h.ready.Load() && allOK(results)

	status := "ok"
	if !healthy {
		status = "unavailable"
	}
	writeStatus(w, healthy, map[string]any{"status": status, "checks": results})
}

// StatusEndpoint serves the public /health view: overall status, database
// connectivity, and a timestamp. Always 200; clients read the body.
func (h *Health) StatusEndpoint(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if !allOK(runChecks(r.Context(), h.readiness)) {
		database = "disconnected"
	}

	writeStatus(w, true, map[string]any{
		"status":    "healthy",
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GoroutineCountCheck returns a liveness check failing when the goroutine
// count exceeds max, a cheap proxy for leaked request handlers.
func GoroutineCountCheck(max int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > max {
			return errors.Errorf("too many goroutines: %d > %d", n, max)
		}
		return nil
	}
}
