package handlers

import (
	"net/http"

	"seg-orchestrator/core/poller"
)

// HealthHandler reports service liveness and polling-loop state
type HealthHandler struct {
	manager *poller.Manager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(manager *poller.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// HealthResponse is the JSON health report.
type HealthResponse struct {
	Status string        `json:"status"`
	Poller poller.Health `json:"poller"`
}

// GetHealth handles GET /health. The service is degraded when the polling
// loop is not running, since job state stops converging without it.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	health := h.manager.Health()

	status := "ok"
	code := http.StatusOK
	if !health.Running {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Poller: health})
}
