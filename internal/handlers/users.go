package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
	"github.com/andripurnama/mobile-auth-api/internal/models"
)

// UserLister defines the interface that the service must implement.
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.UserDB, error)
}

// UserListItem is one entry of the user list
// swagger:model UserListItem
type UserListItem struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Registered bool      `json:"registered"`
	CreatedAt  time.Time `json:"created_at"`
}

// UsersResponse represents the user list response
// swagger:model UsersResponse
type UsersResponse struct {
	Success   bool           `json:"success"`
	Total     int            `json:"total"`
	Users     []UserListItem `json:"users"`
	Timestamp string         `json:"timestamp"`
}

// NewListUsersHandler returns an HTTP handler listing all users,
// newest first.
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} handlers.UsersResponse "User list"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/users [get]
func NewListUsersHandler(svc UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		users, err := svc.ListUsers(r.Context())
		if err != nil {
			logger.Log.Errorw("failed to list users", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Message: "Server error: " + err.Error(),
			})
			return
		}

		items := make([]UserListItem, 0, len(users))
		for _, u := range users {
			items = append(items, UserListItem{
				ID:         u.ID,
				Username:   u.Username,
				Registered: true,
				CreatedAt:  u.CreatedAt,
			})
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(UsersResponse{
			Success:   true,
			Total:     len(items),
			Users:     items,
			Timestamp: timestamp(),
		})
	}
}
