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

func TestMetrics_Counters(t *testing.T) {
	_, m := NewRegistry()

	m.Login(OutcomeSuccess)
	m.Login(OutcomeSuccess)
	m.Login(OutcomeInvalidCredentials)
	m.Registration(OutcomeConflict)
	m.Logout()
	m.Guard(DecisionDenied)
	m.Request("GET", "/users/me", "401")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues(OutcomeInvalidCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues(DecisionDenied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/users/me", "401")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Login(OutcomeSuccess)
		m.Registration(OutcomeSuccess)
		m.Logout()
		m.Guard(DecisionAllowed)
		m.ObserveHash("hash", time.Now())
		m.Request("GET", "/", "200")
	})
}

func TestHandlerFor_Exposition(t *testing.T) {
	reg, m := NewRegistry()
	m.ObserveHash("verify", time.Now().Add(-50*time.Millisecond))
	m.Login(OutcomeSuccess)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `accountd_login_attempts_total{outcome="success"} 1`)
	assert.Contains(t, string(body), `accountd_password_hash_duration_seconds_count{op="verify"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
