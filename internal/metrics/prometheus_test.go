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

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(SourceFetches.WithLabelValues("nse", "success"))
	RecordFetch("nse", "success", time.Now().Add(-time.Second))
	after := testutil.ToFloat64(SourceFetches.WithLabelValues("nse", "success"))
	assert.InDelta(t, 1, after-before, 1e-9)
}

func TestInitIsIdempotentAndServes(t *testing.T) {
	Init()
	Init()
	Predictions.WithLabelValues("NIFTY", "Up").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), "pulse_predictions_total")
}
