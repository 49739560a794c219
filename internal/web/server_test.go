package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-pulse/internal/types"
)

type stubDashboard struct {
	snap *types.Snapshot
	err  error
}

func (s stubDashboard) Snapshot(context.Context) (*types.Snapshot, error) { return s.snap, s.err }

func fullSnapshot() *types.Snapshot {
	target := 22220.0
	rows := make([]types.OptionChainRow, 0, 8)
	for i := 0; i < 8; i++ {
		rows = append(rows, types.OptionChainRow{StrikePrice: 21800 + float64(i)*50, ExpiryDate: "28-Nov-2024", CallOpenInterest: 100, PutOpenInterest: 200})
	}
	return &types.Snapshot{
		ID:          "snap-1",
		Symbol:      "NIFTY",
		GeneratedAt: 1732780800,
		Price:       &types.Quote{Symbol: "NIFTY", Price: 22000, Source: "yahoo"},
		Chain:       &types.OptionChain{Symbol: "NIFTY", Underlying: 22015.4, Rows: rows},
		Headlines:   []string{"Nifty rallies <b>hard</b>", "Unscored headline"},
		Sentiment: types.SentimentResult{
			Label: types.Bullish, Average: 0.6, Scored: 1, Failed: 1, Backend: "lexical",
			Headlines: []types.HeadlineScore{{Headline: "Nifty rallies <b>hard</b>",
				Classification: types.Classification{Label: "positive", Score: 0.6, Polarity: 0.6}}},
		},
		Prediction: types.Prediction{
			Status: types.StatusOK, Trend: types.Up, Sentiment: types.Bullish,
			TotalCallOI: 800, TotalPutOI: 1600, PCR: 2, TargetPrice: &target, Reason: "puts lead",
		},
	}
}

func newTestServer(t *testing.T, dash stubDashboard) *Server {
	t.Helper()
	s, err := NewServer(Config{Addr: ":0", ChainPreviewRows: 5}, dash)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestDashboardPage(t *testing.T) {
	rr := get(t, newTestServer(t, stubDashboard{snap: fullSnapshot()}), "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	body := rr.Body.String()
	assert.Contains(t, body, "22000.00")
	assert.Contains(t, body, "Prediction for the next 15 minutes")
	assert.Contains(t, body, "22220.00")
	assert.Contains(t, body, "showing 5 of 8 rows")
	assert.Contains(t, body, "Nifty rallies &lt;b&gt;hard&lt;/b&gt;")
	assert.Contains(t, body, "Unscored headline")
	assert.Equal(t, 5, strings.Count(body, "28-Nov-2024"))
}

func TestDashboardPageDegraded(t *testing.T) {
	snap := &types.Snapshot{
		ID:         "snap-2",
		Symbol:     "NIFTY",
		Headlines:  []string{},
		Sentiment:  types.SentimentResult{Label: types.Neutral},
		Prediction: types.Prediction{Status: types.StatusInsufficientData, Reason: "option chain is empty"},
		Diagnostics: []types.Diagnostic{
			{Source: "price", Kind: types.KindSourceUnavailable, Message: "source unavailable: timeout"},
		},
	}
	rr := get(t, newTestServer(t, stubDashboard{snap: snap}), "/")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "unavailable")
	assert.Contains(t, body, "Insufficient data")
	assert.Contains(t, body, "No option chain data.")
	assert.Contains(t, body, "No headlines.")
	assert.Contains(t, body, "source unavailable: timeout")
}

func TestSnapshotEndpoint(t *testing.T) {
	rr := get(t, newTestServer(t, stubDashboard{snap: fullSnapshot()}), "/api/snapshot")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got types.Snapshot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "snap-1", got.ID)
	assert.Equal(t, types.Up, got.Prediction.Trend)
	assert.Len(t, got.Chain.Rows, 8)
}

func TestSnapshotEndpointError(t *testing.T) {
	rr := get(t, newTestServer(t, stubDashboard{err: context.Canceled}), "/api/snapshot")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = get(t, newTestServer(t, stubDashboard{err: context.Canceled}), "/")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, stubDashboard{snap: fullSnapshot()})

	rr := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	b, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(b), "go_goroutines")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := newTestServer(t, stubDashboard{snap: fullSnapshot()})
	assert.Equal(t, http.StatusNotFound, get(t, s, "/nope").Code)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/snapshot", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s, err := NewServer(Config{Addr: "127.0.0.1:0"}, stubDashboard{snap: fullSnapshot()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
