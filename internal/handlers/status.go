package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/syedak1/dispatch-ai/internal/services/registry"
)

// StatusHandler reports live connection counts.
func StatusHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "running",
			"cameras":     reg.CameraCount(),
			"dispatchers": reg.DispatcherCount(),
		})
	}
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
