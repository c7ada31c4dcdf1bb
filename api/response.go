package api

import (
	"encoding/json"
	"net/http"
)

const maxPageLimit = 100

// WebhookResponse is the body returned to the payment gateway for every
// delivery outcome.
type WebhookResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	ReservationID string `json:"reservationId,omitempty"`
	Error         string `json:"error,omitempty"`
}

// WebhookHealthResponse answers the gateway's configuration probe. It reports
// whether a secret is present, never the secret itself.
type WebhookHealthResponse struct {
	Success    bool `json:"success"`
	Configured bool `json:"configured"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func writeWebhookError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, WebhookResponse{Success: false, Error: message})
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
