package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"esg_platform/esg_hub/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/reports/{report_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reports/"+id, nil))
	}

	expected := `
# HELP esg_http_requests_total HTTP requests by method, route pattern, and status code.
# TYPE esg_http_requests_total counter
esg_http_requests_total{code="404",method="GET",route="/reports/{report_id}"} 2
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "esg_http_requests_total")
	require.NoError(t, err)
}

func TestAutofillMetrics(t *testing.T) {
	m := metrics.New()

	m.ObserveAutofill(metrics.AutofillSucceeded, 5, 2)
	m.ObserveAutofill(metrics.AutofillNoop, 0, 2)
	m.ObserveAutofill(metrics.AutofillFailed, 0, 0)

	count, err := testutil.GatherAndCount(m.Registry(), "esg_report_autofill_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "esg_report_fields_user_protected_total 4")
	assert.Contains(t, w.Body.String(), "esg_report_fields_autofilled_count 2")
}
