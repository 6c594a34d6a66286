package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/albums/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/albums/"+id, nil))
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/albums/{id}", "404"))
	if got != 3 {
		t.Errorf("http_requests_total = %v, want 3", got)
	}
}

func TestObserveLogin(t *testing.T) {
	m := New()
	m.ObserveLogin("api", true)
	m.ObserveLogin("api", false)
	m.ObserveLogin("api", false)

	if got := testutil.ToFloat64(m.LoginAttempts.WithLabelValues("api", "failure")); got != 2 {
		t.Errorf("failures = %v, want 2", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveLogin("web", true)
	nilMetrics.ObserveUpload(10)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveUpload(1024)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if !strings.Contains(string(body), "photo_upload_bytes_count 1") {
		t.Errorf("exposition missing upload histogram:\n%s", body)
	}
}
