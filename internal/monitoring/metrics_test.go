package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// 每个实例使用独立注册表，可重复创建
	m := NewMetrics()
	_ = NewMetrics()

	m.RecordSubmission("sent")
	m.RecordSubmission("sent")
	m.RecordSubmission("honeypot")
	m.RecordHTTPRequest("POST", "/api/contact", "200", 30*time.Millisecond)
	m.RecordProviderCall("resend", "ok", 120*time.Millisecond)
	m.RecordPanic()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("honeypot")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/contact", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PanicsTotal))

	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `traguardo_contact_submissions_total{outcome="sent"} 2`)
	assert.Contains(t, body, "traguardo_provider_request_duration_seconds_bucket")
	assert.Contains(t, body, "traguardo_uptime_seconds")
}
