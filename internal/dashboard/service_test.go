package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-pulse/internal/journal"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/predict"
	"nifty-pulse/internal/sentiment"
	"nifty-pulse/internal/types"
)

type stubPrice struct {
	q   types.Quote
	err error
}

func (s stubPrice) Name() string { return "stub" }
func (s stubPrice) LatestPrice(context.Context, string) (types.Quote, error) {
	return s.q, s.err
}

type stubChain struct {
	rows []types.OptionChainRow
	err  error
}

func (s stubChain) Name() string { return "stub" }
func (s stubChain) OptionChain(_ context.Context, symbol string) (types.OptionChain, error) {
	return types.OptionChain{Symbol: symbol, Rows: s.rows}, s.err
}

type stubNews struct {
	headlines []string
	err       error
	gotMax    *int
}

func (s stubNews) Name() string { return "stub" }
func (s stubNews) Headlines(_ context.Context, max int) ([]string, error) {
	if s.gotMax != nil {
		*s.gotMax = max
	}
	return s.headlines, s.err
}

type brokenBackend struct{}

func (brokenBackend) Name() string { return "broken" }
func (brokenBackend) Classify(context.Context, string) (types.Classification, error) {
	return types.Classification{}, fmt.Errorf("%w: model offline", types.ErrSourceUnavailable)
}

type memJournal struct {
	entries []journal.Entry
	err     error
}

func (m *memJournal) Append(e journal.Entry) error {
	m.entries = append(m.entries, e)
	return m.err
}

func diagnosticKinds(s *types.Snapshot) map[string]types.DiagnosticKind {
	out := make(map[string]types.DiagnosticKind)
	for _, d := range s.Diagnostics {
		out[d.Source] = d.Kind
	}
	return out
}

func TestSnapshotHappyPath(t *testing.T) {
	var gotMax int
	j := &memJournal{}
	svc := NewService(Deps{
		Symbol:       "NIFTY",
		MaxHeadlines: 3,
		Price:        stubPrice{q: types.Quote{Symbol: "NIFTY", Price: 22000, Source: "stub"}},
		Chain:        stubChain{rows: []types.OptionChainRow{{StrikePrice: 22000, CallOpenInterest: 100, PutOpenInterest: 200}}},
		News:         stubNews{headlines: []string{"Nifty surges to record high as banks rally"}, gotMax: &gotMax},
		Scorer:       sentiment.NewScorer(sentiment.NewLexicalBackend(), sentiment.DefaultEpsilon),
		Predictor:    predict.New(predict.DefaultConfig()),
		Journal:      j,
	})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 3, gotMax)
	assert.Empty(t, snap.Diagnostics)
	require.NotNil(t, snap.Price)
	require.NotNil(t, snap.Chain)
	assert.Equal(t, types.Bullish, snap.Sentiment.Label)
	assert.Equal(t, types.StatusOK, snap.Prediction.Status)
	assert.Equal(t, types.Up, snap.Prediction.Trend)
	require.NotNil(t, snap.Prediction.TargetPrice)
	assert.Equal(t, 22220.0, *snap.Prediction.TargetPrice)

	require.Len(t, j.entries, 1)
	assert.Equal(t, snap.ID, j.entries[0].SnapshotID)
	assert.Equal(t, "Up", j.entries[0].Trend)
}

func TestSnapshotRendersWhenEverythingFails(t *testing.T) {
	svc := NewService(Deps{
		Symbol: "NIFTY",
		Price:  stubPrice{err: fmt.Errorf("%w: timeout", types.ErrSourceUnavailable)},
		Chain:  stubChain{err: fmt.Errorf("%w: empty", types.ErrDataMissing)},
		News:   stubNews{err: fmt.Errorf("%w: blocked", types.ErrSourceUnavailable)},
		Scorer: sentiment.NewScorer(sentiment.NewLexicalBackend(), sentiment.DefaultEpsilon),
	})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snap.Price)
	assert.Nil(t, snap.Chain)
	assert.Empty(t, snap.Headlines)
	assert.NotNil(t, snap.Headlines)
	assert.Equal(t, types.Neutral, snap.Sentiment.Label)
	assert.True(t, snap.Prediction.Insufficient())
	assert.Empty(t, snap.Prediction.Trend)

	kinds := diagnosticKinds(snap)
	assert.Equal(t, types.KindSourceUnavailable, kinds["price"])
	assert.Equal(t, types.KindDataMissing, kinds["chain"])
	assert.Equal(t, types.KindSourceUnavailable, kinds["news"])
	assert.Equal(t, types.KindComputationSkipped, kinds["prediction"])
	_, scored := kinds["sentiment"]
	assert.False(t, scored, "no headlines is not a sentiment failure")
}

func TestSnapshotSentimentBackendDown(t *testing.T) {
	svc := NewService(Deps{
		Symbol: "NIFTY",
		Price:  stubPrice{q: types.Quote{Price: 22000}},
		Chain:  stubChain{rows: []types.OptionChainRow{{CallOpenInterest: 100, PutOpenInterest: 200}}},
		News:   stubNews{headlines: []string{"a", "b"}},
		Scorer: sentiment.NewScorer(brokenBackend{}, sentiment.DefaultEpsilon),
	})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.Neutral, snap.Sentiment.Label)
	assert.Equal(t, types.KindSourceUnavailable, diagnosticKinds(snap)["sentiment"])
	assert.Equal(t, types.TrendNeutral, snap.Prediction.Trend)
	assert.Equal(t, []string{"a", "b"}, snap.Headlines)
}

func TestSnapshotJournalFailureDoesNotDegrade(t *testing.T) {
	j := &memJournal{err: errors.New("disk full")}
	svc := NewService(Deps{
		Symbol:  "NIFTY",
		Price:   stubPrice{q: types.Quote{Price: 22000}},
		Chain:   stubChain{rows: []types.OptionChainRow{{CallOpenInterest: 1, PutOpenInterest: 1}}},
		News:    stubNews{headlines: []string{}},
		Scorer:  sentiment.NewScorer(sentiment.NewLexicalBackend(), 0),
		Journal: j,
	})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Diagnostics)
	assert.Len(t, j.entries, 1)
}

func TestSnapshotCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(Deps{Symbol: "NIFTY"})
	snap, err := svc.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, logger.InitWithConfig(logger.LogConfig{Level: "INFO", Format: "json", Output: buf}))
	t.Cleanup(func() { _ = logger.InitWithConfig(logger.LogConfig{Level: "INFO", Format: "json", Output: io.Discard}) })
	return buf
}

func TestSnapshotLogsDegradedRender(t *testing.T) {
	buf := captureLogs(t)
	svc := NewService(Deps{
		Symbol: "NIFTY",
		Price:  stubPrice{err: fmt.Errorf("%w: timeout", types.ErrSourceUnavailable)},
		Chain:  stubChain{rows: []types.OptionChainRow{{StrikePrice: 22000, CallOpenInterest: 1, PutOpenInterest: 1}}},
		News:   stubNews{headlines: []string{"Markets flat"}},
		Scorer: sentiment.NewScorer(sentiment.NewLexicalBackend(), sentiment.DefaultEpsilon),
	})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.DurationMS, int64(0))

	out := buf.String()
	assert.Contains(t, out, "Operation failed")
	assert.Contains(t, out, "price: source unavailable")
}

func TestSnapshotHealthyRenderLogsNoFailure(t *testing.T) {
	buf := captureLogs(t)
	svc := NewService(Deps{
		Symbol: "NIFTY",
		Price:  stubPrice{q: types.Quote{Price: 22000}},
		Chain:  stubChain{rows: []types.OptionChainRow{{StrikePrice: 22000, CallOpenInterest: 1, PutOpenInterest: 1}}},
		News:   stubNews{headlines: []string{"Markets flat"}},
		Scorer: sentiment.NewScorer(sentiment.NewLexicalBackend(), sentiment.DefaultEpsilon),
	})

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Operation failed")
}
