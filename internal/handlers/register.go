package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
	"github.com/andripurnama/mobile-auth-api/internal/services"
)

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, username, password, androidID string) (*services.RegistrationResult, error)
}

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Username
	// required: true
	// default: andri
	Username string `json:"username"`

	// Password
	// required: true
	// default: secret123
	Password string `json:"password"`
}

// RegisterResponse represents a successful registration response
// swagger:model RegisterResponse
type RegisterResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Username   string `json:"username"`
	UserID     int64  `json:"userId"`
	TotalUsers int64  `json:"totalUsers"`
	Timestamp  string `json:"timestamp"`
}

// ErrorResponse is the failure envelope shared by the path-routed endpoints
// swagger:model ErrorResponse
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new user account. Username must be unique, password is hashed before storing.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "User registration request"
// @Success 201 {object} handlers.RegisterResponse "User successfully registered"
// @Failure 400 {object} handlers.ErrorResponse "Missing fields or password too short"
// @Failure 409 {object} handlers.ErrorResponse "Username already taken"
// @Router /api/register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Message: "Username dan password harus diisi",
			})
			return
		}

		// Required fields are checked before any store access.
		if req.Username == "" || req.Password == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Message: "Username dan password harus diisi",
			})
			return
		}

		// Counted in runes, not bytes, so multibyte passwords measure
		// the way the mobile client counts them.
		if utf8.RuneCountInString(req.Password) < 6 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Message: "Password minimal 6 karakter",
			})
			return
		}

		result, err := svc.Register(r.Context(), req.Username, req.Password, "")
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserAlreadyExists):
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(ErrorResponse{
					Message: "Username sudah digunakan",
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(ErrorResponse{
					Message: "Server error: " + err.Error(),
				})
			}
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(RegisterResponse{
			Success:    true,
			Message:    "Registrasi berhasil",
			Username:   result.Username,
			UserID:     result.UserID,
			TotalUsers: result.TotalUsers,
			Timestamp:  timestamp(),
		})
	}
}
