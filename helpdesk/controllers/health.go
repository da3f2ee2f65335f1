package controllers

import (
	"encoding/json"
	"net/http"
)

// HealthController reports liveness plus which store backs the process, so
// a probe against a dev instance shows "memory" instead of "postgres".
type HealthController struct {
	store string
}

func NewHealthController(store string) *HealthController {
	return &HealthController{store: store}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "helpdesk",
		"store":   h.store,
	})
}
