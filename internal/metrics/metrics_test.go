package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDecision(t *testing.T) {
	m := New()
	m.ObserveDecision("require_session", "redirect")
	m.ObserveDecision("require_session", "redirect")
	m.ObserveDecision("public_only", "render")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GateDecisions.WithLabelValues("require_session", "redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateDecisions.WithLabelValues("public_only", "render")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveDecision("x", "y")
	m.ObserveLogin("ok")
	m.ObserveExpiration()
	m.ObservePanic()
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveLogin("success")
	m.ObserveExpiration()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	assert.True(t, strings.Contains(text, `roboadmin_logins_total{result="success"} 1`), text)
	assert.Contains(t, text, "roboadmin_session_expirations_total 1")
}
