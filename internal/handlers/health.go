package handlers

import (
	"net/http"
	"runtime"
	"time"

	"hlsgateway/internal/apierr"
	"hlsgateway/internal/startup"
)

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck serves GET /healthz.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteJSON(w, HealthResponse{
		Status:       "healthy",
		Version:      startup.Version,
		Uptime:       time.Since(startTime).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	})
}

// LivenessCheck serves GET /livez: always 200 once the process is up.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		apierr.WriteJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck serves GET /readyz: 200 once FFmpeg/FFprobe preflight
// checks passed at startup; always true by the time routes are being
// served, since EnsureHLSRoot and the binary checks run before the
// server starts accepting connections.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteStatus(w, "ready")
}
