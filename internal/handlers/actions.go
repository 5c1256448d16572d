package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
	"github.com/andripurnama/mobile-auth-api/internal/models"
	"github.com/andripurnama/mobile-auth-api/internal/services"
)

// DeviceAccount defines the service surface used by the device-bound
// (query-action) endpoint set.
type DeviceAccount interface {
	Register(ctx context.Context, username, password, androidID string) (*services.RegistrationResult, error)
	Login(ctx context.Context, username, password, androidID string) (*models.UserDB, error)
	ListUsers(ctx context.Context) ([]models.UserDB, error)
	DeviceID(ctx context.Context, username string) (string, error)
	CountUsers(ctx context.Context) (int64, error)
}

// ActionErrorResponse is the failure envelope of the query-action endpoints
// swagger:model ActionErrorResponse
type ActionErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DeviceRegisterRequest is the registration body of the device-bound variant
// swagger:model DeviceRegisterRequest
type DeviceRegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	AndroidID string `json:"androidId"`
}

// DeviceRegisterResponse echoes a truncated device id
// swagger:model DeviceRegisterResponse
type DeviceRegisterResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	AndroidID string `json:"androidId"`
}

// DeviceLoginResponse is the login success envelope of the device-bound variant
// swagger:model DeviceLoginResponse
type DeviceLoginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// AllUsersResponse maps usernames to stored passwords. Raw credentials are
// exposed on purpose: the mobile client renders this list as-is.
// swagger:model AllUsersResponse
type AllUsersResponse struct {
	Success bool              `json:"success"`
	Users   map[string]string `json:"users"`
	Total   int               `json:"total"`
}

// AndroidIDResponse returns the device id bound to a username
// swagger:model AndroidIDResponse
type AndroidIDResponse struct {
	Success   bool   `json:"success"`
	AndroidID string `json:"androidId"`
}

// TestResponse is the connectivity probe envelope
// swagger:model TestResponse
type TestResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewActionsHandler returns the single handler of the device-bound variant.
// Operations are multiplexed on the `action` query parameter plus the HTTP
// method, mirroring the serverless deployment shape this API started with.
func NewActionsHandler(svc DeviceAccount) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		action := r.URL.Query().Get("action")

		switch {
		case r.Method == http.MethodGet && action == "test":
			handleTest(w, r, svc)
		case r.Method == http.MethodPost && action == "register":
			handleDeviceRegister(w, r, svc)
		case r.Method == http.MethodPost && action == "login":
			handleDeviceLogin(w, r, svc)
		case r.Method == http.MethodGet && action == "all":
			handleAllUsers(w, r, svc)
		case r.Method == http.MethodGet && action == "androidid":
			handleAndroidID(w, r, svc)
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: "API endpoint not found",
			})
		}
	}
}

func handleTest(w http.ResponseWriter, r *http.Request, svc DeviceAccount) {
	// The probe has to reach the store; a success that never touched
	// the database would report connected no matter what.
	if _, err := svc.CountUsers(r.Context()); err != nil {
		logger.Log.Errorw("connection test failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ActionErrorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(TestResponse{
		Success:   true,
		Message:   "Database connection successful",
		Timestamp: timestamp(),
	})
}

func handleDeviceRegister(w http.ResponseWriter, r *http.Request, svc DeviceAccount) {
	var req DeviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = DeviceRegisterRequest{}
	}

	if req.Username == "" || req.Password == "" || req.AndroidID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ActionErrorResponse{
			Error: "Username, password, and androidId are required",
		})
		return
	}

	result, err := svc.Register(r.Context(), req.Username, req.Password, req.AndroidID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: "Username sudah terdaftar",
			})
		default:
			logger.Log.Errorw("device register failed", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: "Gagal menyimpan user ke database",
			})
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(DeviceRegisterResponse{
		Success:   true,
		Message:   "User berhasil didaftarkan",
		Username:  result.Username,
		AndroidID: services.TruncateDeviceID(result.AndroidID),
	})
}

func handleDeviceLogin(w http.ResponseWriter, r *http.Request, svc DeviceAccount) {
	var req DeviceRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = DeviceRegisterRequest{}
	}

	if req.Username == "" || req.Password == "" || req.AndroidID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ActionErrorResponse{
			Error: "Username, password, and androidId are required",
		})
		return
	}

	user, err := svc.Login(r.Context(), req.Username, req.Password, req.AndroidID)
	if err != nil {
		var mismatch *services.DeviceMismatchError
		switch {
		case errors.Is(err, services.ErrUserDoesNotExist):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: "Username tidak ditemukan",
			})
		case errors.Is(err, services.ErrInvalidPassword):
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: "Password salah",
			})
		case errors.As(err, &mismatch):
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: mismatch.Error(),
			})
		default:
			logger.Log.Errorw("device login failed", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: "Gagal validasi login",
			})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(DeviceLoginResponse{
		Success:  true,
		Message:  "Login berhasil",
		Username: user.Username,
	})
}

func handleAllUsers(w http.ResponseWriter, r *http.Request, svc DeviceAccount) {
	users, err := svc.ListUsers(r.Context())
	if err != nil {
		logger.Log.Errorw("failed to list users", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ActionErrorResponse{
			Error: "Gagal mengambil data users",
		})
		return
	}

	userMap := make(map[string]string, len(users))
	for _, u := range users {
		userMap[u.Username] = u.Password
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AllUsersResponse{
		Success: true,
		Users:   userMap,
		Total:   len(users),
	})
}

func handleAndroidID(w http.ResponseWriter, r *http.Request, svc DeviceAccount) {
	username := r.URL.Query().Get("username")
	if username == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ActionErrorResponse{
			Error: "Username is required",
		})
		return
	}

	androidID, err := svc.DeviceID(r.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserDoesNotExist):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: "User tidak ditemukan",
			})
		default:
			logger.Log.Errorw("failed to get android id", "username", username, "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ActionErrorResponse{
				Error: "Gagal mengambil Android ID",
			})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AndroidIDResponse{
		Success:   true,
		AndroidID: androidID,
	})
}
