package handlers

import (
	"encoding/json"
	"net/http"
)

// NotFoundResponse names the attempted route and lists what exists
// swagger:model NotFoundResponse
type NotFoundResponse struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

// NewNotFoundHandler returns a handler for unmatched routes. The response
// is informational: it names the attempted method and path and lists the
// operations that are available.
func NewNotFoundHandler(endpoints []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(NotFoundResponse{
			Message:            "Endpoint tidak ditemukan: " + r.Method + " " + r.URL.Path,
			AvailableEndpoints: endpoints,
		})
	}
}
