package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitalsense/rppg-analyzer/internal/worker"
)

// MetricsRegistry holds the Prometheus collectors for the analysis service.
// Each server instance carries its own registry so multiple servers can
// coexist in one process.
type MetricsRegistry struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	QueueDepth       prometheus.GaugeFunc
}

// NewMetricsRegistry creates and registers all service metrics. The queue
// depth gauge reads from the pool on every scrape.
func NewMetricsRegistry(pool *worker.Pool) *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rppg_http_requests_total",
				Help: "Total HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rppg_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"route"},
		),

		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rppg_analyses_total",
				Help: "Total analysis attempts by outcome",
			},
			[]string{"outcome"},
		),

		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rppg_analysis_duration_seconds",
				Help:    "End-to-end analysis duration in seconds, queue wait included",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
		),

		QueueDepth: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "rppg_worker_queue_depth",
				Help: "Number of analysis tasks waiting in the worker queue",
			},
			func() float64 {
				if pool == nil {
					return 0
				}
				return float64(pool.Metrics().QueueDepth)
			},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.QueueDepth,
	)

	return m
}

// Handler returns the Prometheus exposition endpoint for this registry.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts one handled HTTP request.
func (m *MetricsRegistry) RecordRequest(method, route string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordAnalysis counts one analysis attempt by outcome.
func (m *MetricsRegistry) RecordAnalysis(outcome string, duration time.Duration) {
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.AnalysisDuration.Observe(duration.Seconds())
	}
}
