package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConnectionCounts exposes live connection totals for the gauges; the
// connection registry implements it.
type ConnectionCounts interface {
	CameraCount() int
	DispatcherCount() int
}

// Metrics holds the service counters, exported through a private
// Prometheus registry.
type Metrics struct {
	FragmentsReceived  atomic.Uint64
	FramesForwarded    atomic.Uint64
	Flushes            atomic.Uint64
	EmptyFlushes       atomic.Uint64
	AlertsSent         atomic.Uint64
	CyclesNoIncident   atomic.Uint64
	CompressorFailures atomic.Uint64
	ClassifierFailures atomic.Uint64
	AgentFailures      atomic.Uint64
	BroadcastErrors    atomic.Uint64
	Decisions          atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance and registers its collectors. conns may
// be nil; the connection gauges are then omitted.
func New(conns ConnectionCounts) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics(conns)
	return m
}

func (m *Metrics) registerPrometheusMetrics(conns ConnectionCounts) {
	gauge := func(name, help string, fn func() float64) {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help},
			fn,
		))
	}
	counter := func(name, help string, v *atomic.Uint64) {
		gauge(name, help, func() float64 { return float64(v.Load()) })
	}

	counter("dispatch_fragments_received_total", "Total description fragments received from cameras", &m.FragmentsReceived)
	counter("dispatch_frames_forwarded_total", "Total video frames forwarded to dispatchers", &m.FramesForwarded)
	counter("dispatch_buffer_flushes_total", "Total buffer flushes that started a triage cycle", &m.Flushes)
	counter("dispatch_empty_flushes_total", "Total flushes skipped because the buffer was empty", &m.EmptyFlushes)
	counter("dispatch_alerts_sent_total", "Total alerts broadcast to dispatchers", &m.AlertsSent)
	counter("dispatch_cycles_no_incident_total", "Total triage cycles classified as no emergency", &m.CyclesNoIncident)
	counter("dispatch_compressor_failures_total", "Total compression calls degraded to raw text", &m.CompressorFailures)
	counter("dispatch_classifier_failures_total", "Total classification calls degraded to the fallback verdict", &m.ClassifierFailures)
	counter("dispatch_agent_failures_total", "Total specialist agent calls that errored", &m.AgentFailures)
	counter("dispatch_broadcast_errors_total", "Total dispatcher connections pruned on failed sends", &m.BroadcastErrors)
	counter("dispatch_decisions_total", "Total confirm/reject decisions received from dispatchers", &m.Decisions)

	if conns != nil {
		gauge("dispatch_cameras_connected", "Number of connected cameras",
			func() float64 { return float64(conns.CameraCount()) })
		gauge("dispatch_dispatchers_connected", "Number of connected dispatchers",
			func() float64 { return float64(conns.DispatcherCount()) })
	}
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
