package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/documents/{id}/download-url", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download-url", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, "/documents/{id}/download-url", "404"))
	assert.Equal(t, float64(2), got)
}

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordIdempotency("upload-url", "replayed")
	m.RecordStorageDelete("reconciler", errors.New("boom"))
	m.SetReconcileBacklog(7)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.idempotencyTotal.WithLabelValues("upload-url", "replayed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.storageDeletesTotal.WithLabelValues("reconciler", "error")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.reconcileBacklog))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordIdempotency("upload-url", "executed")
		m.RecordDocumentEvent("completed")
		m.ObserveStorageCall("sign_upload", nil, 0)
		m.RecordStorageDelete("request", nil)
		m.SetReconcileBacklog(1)
	})

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}
