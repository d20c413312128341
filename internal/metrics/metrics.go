// Package metrics exposes Prometheus metrics for the dues engine.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/segyhp/dues-engine/internal/domain"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	requestsInFlight   prometheus.Gauge
	reconciliations    *prometheus.CounterVec
	reconciledPeriods  *prometheus.CounterVec
	policyViolations   *prometheus.CounterVec
	duplicateRecords   *prometheus.CounterVec
	invalidSchedules   *prometheus.CounterVec
	portfolioDuration  prometheus.Histogram
	portfolioFailures  prometheus.Gauge
	portfolioLastRunAt prometheus.Gauge
}

var (
	globalMetrics *Metrics
	once          sync.Once
)

// NewMetrics creates and registers the metrics once per process.
func NewMetrics() *Metrics {
	once.Do(func() {
		globalMetrics = &Metrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dues_engine_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			requestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "dues_engine_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"method", "path", "status"},
			),
			requestsInFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "dues_engine_http_requests_in_flight",
					Help: "Number of HTTP requests currently being processed",
				},
			),
			reconciliations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dues_engine_reconciliations_total",
					Help: "Obligations reconciled, by kind",
				},
				[]string{"kind"},
			),
			reconciledPeriods: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dues_engine_reconciled_periods_total",
					Help: "Scheduled periods classified, by kind",
				},
				[]string{"kind"},
			),
			policyViolations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dues_engine_policy_violations_total",
					Help: "Penalty policy results clamped to zero",
				},
				[]string{"kind"},
			),
			duplicateRecords: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dues_engine_duplicate_records_total",
					Help: "Periods with more than one ledger record",
				},
				[]string{"kind"},
			),
			invalidSchedules: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dues_engine_invalid_schedules_total",
					Help: "Obligations rejected for a malformed schedule",
				},
				[]string{"kind"},
			),
			portfolioDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "dues_engine_portfolio_run_duration_seconds",
					Help:    "Duration of portfolio reconciliation passes",
					Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
				},
			),
			portfolioFailures: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "dues_engine_portfolio_failed_tenants",
					Help: "Tenants skipped in the last portfolio pass",
				},
			),
			portfolioLastRunAt: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "dues_engine_portfolio_last_run_timestamp_seconds",
					Help: "Unix time of the last completed portfolio pass",
				},
			),
		}
	})
	return globalMetrics
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveReconciliation implements reconcile.Observer.
func (m *Metrics) ObserveReconciliation(kind domain.DueKind, periods int) {
	m.reconciliations.WithLabelValues(string(kind)).Inc()
	m.reconciledPeriods.WithLabelValues(string(kind)).Add(float64(periods))
}

func (m *Metrics) ObservePolicyViolation(kind domain.DueKind) {
	m.policyViolations.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ObserveDuplicateRecord(kind domain.DueKind) {
	m.duplicateRecords.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ObserveInvalidSchedule(kind domain.DueKind) {
	m.invalidSchedules.WithLabelValues(string(kind)).Inc()
}

// RecordPortfolioRun records one completed portfolio pass.
func (m *Metrics) RecordPortfolioRun(duration time.Duration, failures int, finishedAt time.Time) {
	m.portfolioDuration.Observe(duration.Seconds())
	m.portfolioFailures.Set(float64(failures))
	m.portfolioLastRunAt.Set(float64(finishedAt.Unix()))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count, latency and in-flight requests. Paths
// are labelled with the mux route template to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.RecordHTTPRequest(r.Method, routeTemplate(r), rw.statusCode, time.Since(start))
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
