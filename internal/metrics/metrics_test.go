package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("POST", "/api/chat", 200, time.Second)
		m.RecordRateLimited()
		m.RecordExtractionFailure("no_text")
		m.RecordStream("completed", time.Second)
		m.RecordEvaluation("scored", map[string]float64{"overall": 70})
	})
}

func TestHandlerExposesRecordedSeries(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/api/chat", 429, 10*time.Millisecond)
	m.RecordRateLimited()
	m.RecordExtractionFailure("")
	m.RecordEvaluation("scored", map[string]float64{"overall": 72.5})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `careerforge_http_requests_total{method="POST",route="/api/chat",status="429"} 1`)
	assert.Contains(t, text, "careerforge_chat_rate_limited_total 1")
	assert.Contains(t, text, `careerforge_pdf_extraction_failures_total{reason="unknown"} 1`)
	assert.Contains(t, text, `careerforge_evaluation_runs_total{status="scored"} 1`)
}
