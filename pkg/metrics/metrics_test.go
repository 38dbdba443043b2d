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

func TestMetrics_Contadores(t *testing.T) {
	m := New()

	m.RecordMovement("in")
	m.RecordMovement("in")
	m.RecordMovement("out")
	m.RecordMovementFailure("insufficient_stock")
	m.RecordReplay()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MovementsRecorded.WithLabelValues("in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MovementsRecorded.WithLabelValues("out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MovementFailures.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotentReplays))
}

func TestMetrics_HandlerExpone(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodPost, "/api/inventory/movements", 201, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `stock_ledger_http_requests_total{method="POST",route="/api/inventory/movements",status="201"} 1`)
}
