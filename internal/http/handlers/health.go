package handlers

import (
	"encoding/json"
	"net/http"
)

// CredentialChecker reports whether upstream calendar credentials exist.
type CredentialChecker interface {
	Connected() bool
}

// HealthHandler answers liveness probes.
type HealthHandler struct {
	creds CredentialChecker
}

// NewHealthHandler creates the health handler. creds may be nil.
func NewHealthHandler(creds CredentialChecker) *HealthHandler {
	return &HealthHandler{creds: creds}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"ok":      true,
		"service": "booking-server",
	}
	if h.creds != nil {
		payload["calendar_connected"] = h.creds.Connected()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
