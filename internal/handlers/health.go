package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
)

// HealthChecker defines the interface that the service must implement.
type HealthChecker interface {
	CountUsers(ctx context.Context) (int64, error)
	Uptime() float64
}

// HealthResponse reports a reachable store
// swagger:model HealthResponse
type HealthResponse struct {
	Status     string  `json:"status"`
	Timestamp  string  `json:"timestamp"`
	Uptime     float64 `json:"uptime"`
	TotalUsers int64   `json:"totalUsers"`
	Database   string  `json:"database"`
}

// UnhealthyResponse reports an unreachable store
// swagger:model UnhealthyResponse
type UnhealthyResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
	Database  string  `json:"database"`
	Error     string  `json:"error"`
}

// NewHealthHandler returns an HTTP liveness handler. It proves store
// connectivity with a row count and reports unhealthy instead of
// propagating a store fault.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse "Service healthy"
// @Failure 500 {object} handlers.UnhealthyResponse "Store unreachable"
// @Router /api/health [get]
func NewHealthHandler(svc HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		total, err := svc.CountUsers(r.Context())
		if err != nil {
			logger.Log.Errorw("health check failed", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(UnhealthyResponse{
				Status:    "unhealthy",
				Timestamp: timestamp(),
				Uptime:    svc.Uptime(),
				Database:  "disconnected",
				Error:     err.Error(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(HealthResponse{
			Status:     "healthy",
			Timestamp:  timestamp(),
			Uptime:     svc.Uptime(),
			TotalUsers: total,
			Database:   "connected",
		})
	}
}
