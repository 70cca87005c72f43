package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/syedak1/dispatch-ai/internal/config"
	"github.com/syedak1/dispatch-ai/internal/logger"
	"github.com/syedak1/dispatch-ai/internal/metrics"
	"github.com/syedak1/dispatch-ai/internal/routes"
	"github.com/syedak1/dispatch-ai/internal/services/ai"
	"github.com/syedak1/dispatch-ai/internal/services/registry"
	"github.com/syedak1/dispatch-ai/internal/services/storage"
	"github.com/syedak1/dispatch-ai/internal/services/triage"
	"github.com/syedak1/dispatch-ai/internal/services/uplink"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	registry *registry.Registry
	buffers  *storage.BufferService
	pipeline *triage.Pipeline
	metrics  *metrics.Metrics
	uplink   *uplink.Publisher
}

func NewApp() *App {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	buffers := storage.NewBufferService(time.Duration(cfg.BufferSeconds) * time.Second)
	reg := registry.NewRegistry(buffers, log)
	m := metrics.New(reg)

	client := ai.NewClient(cfg)
	compressor := ai.NewCompressor(cfg, log)
	classifier := ai.NewClassifier(client)
	agents := []triage.Agent{
		ai.NewFireAgent(client),
		ai.NewEMSAgent(client),
		ai.NewPoliceAgent(client),
	}

	var snapshots triage.SnapshotStore
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewSnapshotStore(cfg)
		if err != nil {
			log.Warning("Snapshot store disabled: %v", err)
		} else {
			snapshots = store
			log.Info("Snapshot store enabled (bucket: %s)", cfg.MinioBucket)
		}
	}

	var publisher triage.AlertPublisher
	var up *uplink.Publisher
	if cfg.MQTTHost != "" {
		p, err := uplink.NewPublisher(cfg, log)
		if err != nil {
			log.Warning("Alert uplink disabled: %v", err)
		} else {
			up = p
			publisher = p
		}
	}

	pipeline := triage.NewPipeline(buffers, reg, compressor, classifier, agents,
		snapshots, publisher, m, log, cfg.RawContextLimit)

	return &App{
		config:   cfg,
		logger:   log,
		registry: reg,
		buffers:  buffers,
		pipeline: pipeline,
		metrics:  m,
		uplink:   up,
	}
}

func (a *App) Run() error {
	router := routes.SetupRoutes(a.registry, a.buffers, a.pipeline, a.metrics, a.logger)

	a.logger.Info("🚀 DispatchAI backend starting on port %d", a.config.Port)
	if a.config.GeminiAPIKey != "" {
		a.logger.Info("GEMINI_API_KEY: set")
	} else {
		a.logger.Warning("GEMINI_API_KEY: missing - classification degrades to the fallback verdict")
	}
	a.logger.Info("Buffer window: %ds", a.config.BufferSeconds)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

// Shutdown drains in-flight triage cycles and closes the alert uplink.
func (a *App) Shutdown() {
	a.pipeline.Wait()
	if a.uplink != nil {
		a.uplink.Close()
	}
}
