package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"triage-assistant/internal/domain"
)

// Recorder owns the triage metrics. It satisfies usecase.Observer.
type Recorder struct {
	gatherer prometheus.Gatherer

	oracleCalls    *prometheus.CounterVec
	oracleDuration *prometheus.HistogramVec
	schemaDrift    *prometheus.CounterVec

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
}

// New registers the metrics on reg. Passing prometheus.NewRegistry() keeps
// tests isolated from the default registry.
func New(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		gatherer: reg,
		oracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_oracle_calls_total",
				Help: "Total number of model gateway calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		oracleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_oracle_call_duration_seconds",
				Help:    "Model gateway call duration in seconds",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"operation"},
		),
		schemaDrift: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_schema_drift_total",
				Help: "Analyses accepted despite violating a soft contract invariant",
			},
			[]string{"kind"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .01, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "route"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
	}
	reg.MustRegister(
		r.oracleCalls,
		r.oracleDuration,
		r.schemaDrift,
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.httpRequestsInFlight,
	)
	return r
}

// RegisterSessionGauge exposes the live session count, read at scrape time.
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "triage_active_sessions",
			Help: "Number of in-memory sessions",
		},
		func() float64 { return float64(count()) },
	))
}

func (r *Recorder) ObserveOracleCall(operation, outcome string, d time.Duration) {
	r.oracleCalls.WithLabelValues(operation, outcome).Inc()
	r.oracleDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (r *Recorder) ObserveDrift(kinds []domain.DriftKind) {
	for _, k := range kinds {
		r.schemaDrift.WithLabelValues(string(k)).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Middleware records HTTP metrics labelled by the matched chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		r.httpRequestsInFlight.Inc()
		defer r.httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, req)

		route := routePattern(req)
		r.httpRequestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		r.httpRequestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// routePattern avoids one label per session ID.
func routePattern(req *http.Request) string {
	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
