package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Live handles GET /health
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w)
}

// Ready handles GET /ready. The service holds no stateful dependencies
// that could make it half-up, so readiness matches liveness.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w)
}

func (h *HealthHandler) writeStatus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
