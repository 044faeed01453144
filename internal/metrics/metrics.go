// Package metrics exposes Prometheus instrumentation on a private registry.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docs"

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	idempotencyTotal    *prometheus.CounterVec
	documentEventsTotal *prometheus.CounterVec
	storageCallDuration *prometheus.HistogramVec
	storageDeletesTotal *prometheus.CounterVec
	reconcileBacklog    prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	idempotencyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "idempotency",
			Name:      "requests_total",
			Help:      "Idempotent executions by scope and outcome.",
		},
		[]string{"scope", "outcome"},
	)
	documentEventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "events_total",
			Help:      "Document lifecycle transitions.",
		},
		[]string{"event"},
	)
	storageCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "call_duration_seconds",
			Help:      "Object store call duration by operation and result.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "result"},
	)
	storageDeletesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "deletes_total",
			Help:      "Physical object deletions by origin and result.",
		},
		[]string{"origin", "result"},
	)
	reconcileBacklog := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "pending_deletes",
			Help:      "Soft-deleted documents still awaiting object removal in the last sweep.",
		},
	)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestTotal,
		requestDuration,
		requestInFlight,
		idempotencyTotal,
		documentEventsTotal,
		storageCallDuration,
		storageDeletesTotal,
		reconcileBacklog,
	)

	return &Metrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		idempotencyTotal:    idempotencyTotal,
		documentEventsTotal: documentEventsTotal,
		storageCallDuration: storageCallDuration,
		storageDeletesTotal: storageDeletesTotal,
		reconcileBacklog:    reconcileBacklog,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware : labels requests by chi route pattern to keep cardinality bounded
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.requestTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordIdempotency : outcome is one of executed, replayed, conflict, reconciled
func (m *Metrics) RecordIdempotency(scope, outcome string) {
	if m == nil {
		return
	}
	m.idempotencyTotal.WithLabelValues(scope, outcome).Inc()
}

func (m *Metrics) RecordDocumentEvent(event string) {
	if m == nil {
		return
	}
	m.documentEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveStorageCall(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storageCallDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// RecordStorageDelete : origin is request or reconciler
func (m *Metrics) RecordStorageDelete(origin string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storageDeletesTotal.WithLabelValues(origin, result).Inc()
}

func (m *Metrics) SetReconcileBacklog(pending int) {
	if m == nil {
		return
	}
	m.reconcileBacklog.Set(float64(pending))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
