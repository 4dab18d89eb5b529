package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/pkg/database"
)

// poolChecker is implemented by stores backed by a connection pool
type poolChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// HealthHandler reports liveness and store health
type HealthHandler struct {
	store     contracts.Store
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store contracts.Store) *HealthHandler {
	return &HealthHandler{store: store, startedAt: time.Now()}
}

// Health returns server health status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":         "ok",
		"service":        "quantum",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	}

	if pc, ok := h.store.(poolChecker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, err := pc.HealthCheck(ctx)
		body["database"] = status
		if err != nil {
			body["status"] = "degraded"
			respondJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}

	respondJSON(w, http.StatusOK, body)
}
