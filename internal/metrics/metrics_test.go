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

func TestInstrument_LabelsByPattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/withdrawals/{userId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.Instrument(mux)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/withdrawals/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/withdrawals/{userId}", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.TaskCompleted("survey", 50)
	m.TaskCompleted("ad", 10)
	m.TaskCompleted("", 0)
	m.WithdrawalCreated("upi", 60)
	m.ChatOutcome("ok")
	m.ChatOutcome("ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.taskCompletions.WithLabelValues("survey")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.taskCompletions.WithLabelValues("unknown")))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.pointsAwarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.withdrawals.WithLabelValues("upi")))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.pointsWithdrawn))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.chatRequests.WithLabelValues("ok")))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.ChatOutcome("rejected")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `rewardhub_help_chat_requests_total{outcome="rejected"} 1`))
}
