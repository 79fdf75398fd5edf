package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	actionLogAppendsTotal *prometheus.CounterVec
	rollbacksTotal        *prometheus.CounterVec
	rollbackLatency       *prometheus.HistogramVec
	historyStreamClients  prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jadwal_requests_total",
			Help: "Total number of class API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jadwal_request_latency_seconds",
			Help:    "Latency distribution for class API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jadwal_errors_total",
			Help: "Total number of error responses returned by class endpoints.",
		}, []string{"method", "route", "status"})

		actionLogAppendsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jadwal_action_log_appends_total",
			Help: "Action log append attempts by action kind and outcome.",
		}, []string{"action", "outcome"})

		rollbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jadwal_rollbacks_total",
			Help: "Rollback attempts by original action kind and outcome.",
		}, []string{"action", "outcome"})

		rollbackLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jadwal_rollback_latency_seconds",
			Help:    "Time spent computing and committing compensating writes.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"outcome"})

		historyStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jadwal_history_stream_clients",
			Help: "Connected history websocket clients.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			actionLogAppendsTotal,
			rollbacksTotal,
			rollbackLatency,
			historyStreamClients,
		)
	})
}

// APIRequests exposes the counter for class API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for class API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ActionLogAppends counts append attempts.
func ActionLogAppends() *prometheus.CounterVec {
	RegisterMetrics()
	return actionLogAppendsTotal
}

// Rollbacks counts rollback attempts.
func Rollbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return rollbacksTotal
}

// RollbackLatency exposes the rollback duration histogram.
func RollbackLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return rollbackLatency
}

// HistoryStreamClients tracks open websocket subscriptions.
func HistoryStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return historyStreamClients
}

// MetricsHandler serves the default registry for Prometheus scrapes, OpenMetrics included.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
}
