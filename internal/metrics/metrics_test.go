package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/schoolarchive/archive/internal/metrics"
)

func TestInstrument_UsesRoutePattern(t *testing.T) {
	metrics.Register("test")

	r := chi.NewRouter()
	r.Use(metrics.Instrument)
	r.Get("/api/drive/download/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", metrics.Handler())

	for _, id := range []string{"a1", "b2", "c3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/download/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `archive_http_requests_total{method="GET",route="/api/drive/download/{id}",status="404"} 3`)
	assert.False(t, strings.Contains(body, "/api/drive/download/a1"), "raw ids must not become labels")
	assert.Contains(t, body, `archive_build_info{version="test"} 1`)
}

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.Register("test")
		metrics.Register("test")
	})
}

func TestAuthEventsCounter(t *testing.T) {
	before := testutil.ToFloat64(metrics.AuthEvents.WithLabelValues("login"))
	metrics.AuthEvents.WithLabelValues("login").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AuthEvents.WithLabelValues("login")))
}
