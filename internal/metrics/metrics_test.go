package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent(t *testing.T) {
	m := New()
	m.Event("login", "ok")
	m.Event("login", "ok")
	m.Event("login", "invalid_credentials")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AccountEvents.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountEvents.WithLabelValues("login", "invalid_credentials")))

	var nilMetrics *Metrics
	nilMetrics.Event("login", "ok")
}

func TestHandler(t *testing.T) {
	m := New()
	m.Event("register", "ok")
	m.RequestsTotal.WithLabelValues("/", "GET", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `account_events_total{event="register",outcome="ok"} 1`)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
