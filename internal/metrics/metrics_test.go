package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MetricsRegistered(t *testing.T) {
	m := New()

	// Vectors only appear once a label set has been observed
	m.RecordAuthEvent("login", true)
	m.RecordMailDelivery("smtp", true)
	m.RecordHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	registered := make(map[string]bool)
	for _, family := range families {
		registered[family.GetName()] = true
	}

	for _, name := range []string{
		"authgate_auth_events_total",
		"authgate_mail_deliveries_total",
		"authgate_reset_tokens_purged_total",
		"authgate_http_requests_total",
		"authgate_http_request_duration_seconds",
		"go_goroutines",
	} {
		assert.True(t, registered[name], "metric %q should be registered", name)
	}
}

func TestRecordAuthEvent(t *testing.T) {
	m := New()

	m.RecordAuthEvent("login", true)
	m.RecordAuthEvent("login", false)
	m.RecordAuthEvent("login", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", OutcomeFailure)))
}

func TestRecordResetTokensPurged(t *testing.T) {
	m := New()

	m.RecordResetTokensPurged(3)
	m.RecordResetTokensPurged(0)
	m.RecordResetTokensPurged(-1)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.ResetTokensPurged))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New()

	m.RecordHTTPRequest(http.MethodPost, "/api/auth/login", http.StatusBadRequest, 20*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodPost, "/api/auth/login", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordAuthEvent("login", true)
		m.RecordMailDelivery("smtp", false)
		m.RecordResetTokensPurged(5)
		m.RecordHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Second)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordAuthEvent("register", true)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `authgate_auth_events_total{event="register",outcome="success"} 1`)
}
