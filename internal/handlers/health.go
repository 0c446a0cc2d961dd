package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"nyapix/internal/logging"
	"nyapix/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

const pingTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
	DBError  string `json:"dbError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Database:     h.db.Driver(),
		Storage:      "disabled",
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if h.blobs != nil {
		response.Storage = "enabled"
	}

	if err := h.ping(r.Context()); err != nil {
		response.Status = statusDegraded
		response.Ready = false
		response.DBError = err.Error()
	}

	status := http.StatusOK
	if !response.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the database answers
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		logging.Warn("Readiness check failed: %v", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *Handlers) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}
