package routes

import (
	"net/http"

	"github.com/syedak1/dispatch-ai/internal/handlers"
	"github.com/syedak1/dispatch-ai/internal/logger"
	"github.com/syedak1/dispatch-ai/internal/metrics"
	"github.com/syedak1/dispatch-ai/internal/services/registry"
	"github.com/syedak1/dispatch-ai/internal/services/storage"
	"github.com/syedak1/dispatch-ai/internal/services/triage"
)

// SetupRoutes registers the websocket endpoints, the status/health
// endpoints, and the metrics handler.
func SetupRoutes(reg *registry.Registry, buffers *storage.BufferService, pipeline *triage.Pipeline, m *metrics.Metrics, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws/camera/{id}", handlers.CameraWebsocketHandler(reg, buffers, pipeline, m, logger))
	mux.HandleFunc("/ws/dispatcher", handlers.DispatcherWebsocketHandler(reg, m, logger))

	mux.HandleFunc("/health", handlers.HealthHandler)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/{$}", handlers.StatusHandler(reg))

	return mux
}
