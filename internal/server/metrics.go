package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics implements the observability hooks on top of a private Prometheus
// registry, so multiple servers (tests) never fight over collector names.
type metrics struct {
	registry *prometheus.Registry

	rebuildDuration *prometheus.HistogramVec
	resolvePasses   *prometheus.HistogramVec
	ticksTotal      prometheus.Counter
	commandsTotal   *prometheus.CounterVec
	storeOpsTotal   *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		rebuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "radialmap",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of full layout pipeline passes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		resolvePasses: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "radialmap",
			Name:      "resolve_iterations",
			Help:      "Iterations used by collision-resolution passes.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40},
		}, []string{"mode"}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radialmap",
			Name:      "ticks_total",
			Help:      "Relaxation ticks driven by hosts.",
		}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radialmap",
			Name:      "commands_total",
			Help:      "Engine commands by name.",
		}, []string{"command"}),
		storeOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radialmap",
			Name:      "store_operations_total",
			Help:      "Override store operations by backend, operation and status.",
		}, []string{"backend", "operation", "status"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radialmap",
			Name:      "sessions_active",
			Help:      "Live layout sessions.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rebuildDuration,
		m.resolvePasses,
		m.ticksTotal,
		m.commandsTotal,
		m.storeOpsTotal,
		m.sessionsActive,
	)
	return m
}

// =============================================================================
// Engine Hooks
// =============================================================================

func (m *metrics) OnRebuildStart(context.Context, int) {}

func (m *metrics) OnRebuildComplete(_ context.Context, mode string, _ int, duration time.Duration) {
	m.rebuildDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (m *metrics) OnResolve(_ context.Context, mode string, iterations int, _ time.Duration) {
	m.resolvePasses.WithLabelValues(mode).Observe(float64(iterations))
}

func (m *metrics) OnTick(_ context.Context, _ bool) {
	m.ticksTotal.Inc()
}

func (m *metrics) OnCommand(_ context.Context, command, _ string) {
	m.commandsTotal.WithLabelValues(command).Inc()
}

// =============================================================================
// Store Hooks
// =============================================================================

func (m *metrics) OnLoad(_ context.Context, backend string, _ int, err error) {
	m.storeOpsTotal.WithLabelValues(backend, "load", statusLabel(err)).Inc()
}

func (m *metrics) OnSave(_ context.Context, backend string, _ int, err error) {
	m.storeOpsTotal.WithLabelValues(backend, "save", statusLabel(err)).Inc()
}

func (m *metrics) OnClear(_ context.Context, backend string, err error) {
	m.storeOpsTotal.WithLabelValues(backend, "clear", statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
