// Package healthcheck provides health and readiness check functionality
// following the Health Check API pattern for cloud-native applications.
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Check represents the result of one dependency probe.
type Check struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	LastChecked time.Time `json:"last_checked"`
	DurationMS  int64     `json:"duration_ms"`
}

// Response represents the health check response.
type Response struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// CheckFunc probes one dependency; a nil error means healthy.
type CheckFunc func(ctx context.Context) error

// HealthCheck manages registered dependency checks.
type HealthCheck struct {
	version string
	timeout time.Duration

	mu       sync.RWMutex
	checkers map[string]CheckFunc
	order    []string
}

// New creates a health check manager.
func New(version string, timeout time.Duration) *HealthCheck {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthCheck{
		version:  version,
		timeout:  timeout,
		checkers: make(map[string]CheckFunc),
	}
}

// Register adds a named dependency check.
func (h *HealthCheck) Register(name string, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.checkers[name]; !exists {
		h.order = append(h.order, name)
	}
	h.checkers[name] = fn
}

// Run executes all checks and aggregates the result.
func (h *HealthCheck) Run(ctx context.Context) Response {
	h.mu.RLock()
	names := append([]string(nil), h.order...)
	checkers := make(map[string]CheckFunc, len(h.checkers))
	for k, v := range h.checkers {
		checkers[k] = v
	}
	h.mu.RUnlock()

	resp := Response{
		Status:    StatusHealthy,
		Version:   h.version,
		Timestamp: time.Now(),
		Checks:    make([]Check, 0, len(names)),
	}

	for _, name := range names {
		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		started := time.Now()
		err := checkers[name](probeCtx)
		cancel()

		check := Check{
			Name:        name,
			Status:      StatusHealthy,
			LastChecked: started,
			DurationMS:  time.Since(started).Milliseconds(),
		}
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			resp.Status = StatusUnhealthy
		}
		resp.Checks = append(resp.Checks, check)
	}
	return resp
}

// Handler serves the aggregated health state over HTTP.
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Run(r.Context())

		status := http.StatusOK
		if resp.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
