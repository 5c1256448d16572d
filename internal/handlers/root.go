package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
)

// UserCounter defines the interface that the service must implement.
type UserCounter interface {
	TotalUsers(ctx context.Context) (int64, error)
}

// RootResponse is the service banner returned on /
// swagger:model RootResponse
type RootResponse struct {
	Message            string   `json:"message"`
	Timestamp          string   `json:"timestamp"`
	TotalUsers         int64    `json:"totalUsers"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

// APIInfoResponse is the service banner returned on /api
// swagger:model APIInfoResponse
type APIInfoResponse struct {
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
	TotalUsers   int64  `json:"totalUsers"`
	ServerStatus string `json:"serverStatus"`
}

// NewRootHandler returns the root banner handler with the endpoint list.
// @Summary Service banner
// @Tags info
// @Produce json
// @Success 200 {object} handlers.RootResponse "Banner with endpoint list"
// @Failure 500 {object} handlers.ErrorResponse "Store unreachable"
// @Router / [get]
func NewRootHandler(svc UserCounter, endpoints []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		total, err := svc.TotalUsers(r.Context())
		if err != nil {
			logger.Log.Errorw("root endpoint error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Message: "Database connection error: " + err.Error(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(RootResponse{
			Message:            "🚀 Flutter Auth API berjalan!",
			Timestamp:          timestamp(),
			TotalUsers:         total,
			AvailableEndpoints: endpoints,
		})
	}
}

// NewAPIInfoHandler returns the /api banner handler.
// @Summary API status banner
// @Tags info
// @Produce json
// @Success 200 {object} handlers.APIInfoResponse "Status banner"
// @Failure 500 {object} handlers.ErrorResponse "Store unreachable"
// @Router /api [get]
func NewAPIInfoHandler(svc UserCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		total, err := svc.TotalUsers(r.Context())
		if err != nil {
			logger.Log.Errorw("api info endpoint error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Message: "Database error: " + err.Error(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(APIInfoResponse{
			Message:      "✅ Flutter Auth API Active",
			Timestamp:    timestamp(),
			TotalUsers:   total,
			ServerStatus: "healthy",
		})
	}
}
