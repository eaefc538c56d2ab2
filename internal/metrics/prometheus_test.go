package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"triage-assistant/internal/domain"
)

func TestRecorder_OracleCallsAndDrift(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.ObserveOracleCall("submit", "ok", 2*time.Second)
	r.ObserveOracleCall("submit", "parse_error", time.Second)
	r.ObserveOracleCall("ask", "ok", time.Second)
	r.ObserveDrift([]domain.DriftKind{domain.DriftProbabilitySum, domain.DriftQuestionCount})
	r.ObserveDrift([]domain.DriftKind{domain.DriftProbabilitySum})

	require.Equal(t, 1.0, testutil.ToFloat64(r.oracleCalls.WithLabelValues("submit", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.oracleCalls.WithLabelValues("submit", "parse_error")))
	require.Equal(t, 2.0, testutil.ToFloat64(r.schemaDrift.WithLabelValues("probability_sum")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.schemaDrift.WithLabelValues("question_count")))
	require.Equal(t, 2, testutil.CollectAndCount(r.oracleDuration))
}

func TestRecorder_MiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	RegisterSessionGauge(reg, func() int { return 3 })

	router := chi.NewRouter()
	router.Use(r.Middleware)
	router.Get("/sessions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Handle("/metrics", r.Handler())

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	require.Equal(t, 2.0, testutil.ToFloat64(r.httpRequestsTotal.WithLabelValues("GET", "/sessions/{id}", "404")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "triage_active_sessions 3")
	require.Contains(t, string(body), `http_requests_total{method="GET",route="/sessions/{id}",status="404"} 2`)
}
