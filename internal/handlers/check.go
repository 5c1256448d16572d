package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
)

// UsernameChecker defines the interface that the service must implement.
type UsernameChecker interface {
	CheckUsername(ctx context.Context, username string) (bool, error)
}

// CheckResponse reports whether a username is taken
// swagger:model CheckResponse
type CheckResponse struct {
	Success  bool   `json:"success"`
	Exists   bool   `json:"exists"`
	Username string `json:"username"`
}

// NewCheckUsernameHandler returns an HTTP handler for username existence
// checks. Absence is a normal outcome, not a failure.
// @Summary Check username availability
// @Tags users
// @Produce json
// @Param username path string true "Username to check"
// @Success 200 {object} handlers.CheckResponse "Existence flag"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/check/{username} [get]
func NewCheckUsernameHandler(svc UsernameChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		username := chi.URLParam(r, "username")

		exists, err := svc.CheckUsername(r.Context(), username)
		if err != nil {
			logger.Log.Errorw("failed to check username", "username", username, "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Message: "Server error: " + err.Error(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(CheckResponse{
			Success:  true,
			Exists:   exists,
			Username: username,
		})
	}
}
