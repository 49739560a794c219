package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-pulse/internal/types"
)

func row(strike float64, callOI, putOI int64) types.OptionChainRow {
	return types.OptionChainRow{StrikePrice: strike, CallOpenInterest: callOI, PutOpenInterest: putOI}
}

func price(v float64) *float64 { return &v }

func TestDecisionTable(t *testing.T) {
	cases := []struct {
		name      string
		callOI    int64
		putOI     int64
		sentiment types.SentimentLabel
		want      types.TrendLabel
	}{
		{"puts dominate bullish", 100, 200, types.Bullish, types.Up},
		{"calls dominate bearish", 200, 100, types.Bearish, types.Down},
		{"balanced neutral", 150, 150, types.Neutral, types.TrendNeutral},
		{"puts dominate bearish", 100, 200, types.Bearish, types.TrendNeutral},
		{"calls dominate bullish", 200, 100, types.Bullish, types.TrendNeutral},
		{"puts dominate neutral", 100, 200, types.Neutral, types.TrendNeutral},
		{"balanced bullish", 150, 150, types.Bullish, types.TrendNeutral},
	}

	p := New(DefaultConfig())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Predict([]types.OptionChainRow{row(22000, tc.callOI, tc.putOI)}, tc.sentiment, nil)
			require.Equal(t, types.StatusOK, got.Status)
			assert.Equal(t, tc.want, got.Trend)
			assert.Equal(t, tc.sentiment, got.Sentiment)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestEmptyChainIsInsufficient(t *testing.T) {
	for _, s := range []types.SentimentLabel{types.Bullish, types.Bearish, types.Neutral} {
		got := New(DefaultConfig()).Predict(nil, s, price(22000))
		assert.True(t, got.Insufficient())
		assert.Empty(t, got.Trend, "sentinel must not be coerced to Neutral")
		assert.Nil(t, got.TargetPrice)
	}
}

func TestSumsWholeChainByDefault(t *testing.T) {
	rows := make([]types.OptionChainRow, 0, 15)
	for i := 0; i < 15; i++ {
		rows = append(rows, row(21000+float64(i)*50, 10, 20))
	}

	got := New(DefaultConfig()).Predict(rows, types.Bullish, nil)
	assert.EqualValues(t, 150, got.TotalCallOI)
	assert.EqualValues(t, 300, got.TotalPutOI)
	assert.Equal(t, 15, got.RowsUsed)
	assert.InDelta(t, 2.0, got.PCR, 1e-9)
}

func TestDuplicateStrikesBothCount(t *testing.T) {
	rows := []types.OptionChainRow{row(22000, 100, 150), row(22000, 100, 150)}

	got := New(DefaultConfig()).Predict(rows, types.Bullish, nil)
	assert.EqualValues(t, 200, got.TotalCallOI)
	assert.EqualValues(t, 300, got.TotalPutOI)
	assert.Equal(t, 2, got.RowsUsed)
	assert.Equal(t, types.Up, got.Trend)
}

func TestTargetPrice(t *testing.T) {
	rows := []types.OptionChainRow{row(22000, 100, 200)}
	p := New(DefaultConfig())

	up := p.Predict(rows, types.Bullish, price(22000))
	require.NotNil(t, up.TargetPrice)
	assert.Equal(t, 22220.00, *up.TargetPrice)

	down := p.Predict([]types.OptionChainRow{row(22000, 200, 100)}, types.Bearish, price(22000))
	require.NotNil(t, down.TargetPrice)
	assert.Equal(t, 21780.00, *down.TargetPrice)

	flat := p.Predict(rows, types.Neutral, price(22000.456))
	require.NotNil(t, flat.TargetPrice)
	assert.Equal(t, 22000.46, *flat.TargetPrice)
}

func TestTargetPriceDisabled(t *testing.T) {
	rows := []types.OptionChainRow{row(22000, 100, 200)}

	noPrice := New(DefaultConfig()).Predict(rows, types.Bullish, nil)
	assert.Nil(t, noPrice.TargetPrice)

	cfg := DefaultConfig()
	cfg.TargetDelta = 0
	zero := New(cfg).Predict(rows, types.Bullish, price(22000))
	assert.Nil(t, zero.TargetPrice)
}

func TestTargetPriceRounding(t *testing.T) {
	assert.Equal(t, 22245.68, TargetPrice(22025.425, types.Up, 0.01))
	assert.Equal(t, 100.01, TargetPrice(100.005, types.TrendNeutral, 0.01))
}

func chain() []types.OptionChainRow {
	return []types.OptionChainRow{
		row(21800, 100, 0),
		row(21900, 0, 100),
		row(22000, 1000, 0),
		row(22100, 0, 1000),
		row(22200, 10, 0),
		row(22300, 0, 10),
	}
}

func TestFirstWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregation = WindowFirst
	cfg.Window = 2

	got := New(cfg).Predict(chain(), types.Neutral, nil)
	assert.EqualValues(t, 100, got.TotalCallOI)
	assert.EqualValues(t, 100, got.TotalPutOI)
	assert.Equal(t, 2, got.RowsUsed)
}

func TestLastWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregation = WindowLast
	cfg.Window = 3

	got := New(cfg).Predict(chain(), types.Neutral, nil)
	assert.EqualValues(t, 10, got.TotalCallOI)
	assert.EqualValues(t, 1010, got.TotalPutOI)
}

func TestWindowLargerThanChain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregation = WindowFirst
	cfg.Window = 100

	got := New(cfg).Predict(chain(), types.Neutral, nil)
	assert.Equal(t, 6, got.RowsUsed)
}

func TestNearestWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregation = WindowNearest
	cfg.Window = 2

	got := New(cfg).Predict(chain(), types.Bullish, price(22060))
	// 22100 and 22000 are closest
	assert.EqualValues(t, 1000, got.TotalCallOI)
	assert.EqualValues(t, 1000, got.TotalPutOI)
	assert.Equal(t, types.TrendNeutral, got.Trend)
}

func TestNearestWithoutPriceIsInsufficient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregation = WindowNearest

	got := New(cfg).Predict(chain(), types.Bullish, nil)
	assert.True(t, got.Insufficient())
}

func TestRequirePrice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequirePrice = true

	got := New(cfg).Predict(chain(), types.Bullish, nil)
	assert.True(t, got.Insufficient())

	got = New(cfg).Predict(chain(), types.Bullish, price(22000))
	assert.Equal(t, types.StatusOK, got.Status)
}

func TestMarginFactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarginFactor = 1.5
	p := New(cfg)

	inside := p.Predict([]types.OptionChainRow{row(22000, 100, 140)}, types.Bullish, nil)
	assert.Equal(t, types.TrendNeutral, inside.Trend)

	outside := p.Predict([]types.OptionChainRow{row(22000, 100, 160)}, types.Bullish, nil)
	assert.Equal(t, types.Up, outside.Trend)

	down := p.Predict([]types.OptionChainRow{row(22000, 151, 100)}, types.Bearish, nil)
	assert.Equal(t, types.Down, down.Trend)
}

func TestNewClampsConfig(t *testing.T) {
	p := New(Config{MarginFactor: 0.5, TargetDelta: -1})
	cfg := p.Config()
	assert.Equal(t, WindowAll, cfg.Aggregation)
	assert.Equal(t, 10, cfg.Window)
	assert.Equal(t, 1.0, cfg.MarginFactor)
	assert.Equal(t, 0.0, cfg.TargetDelta)
}

func TestPutCallRatio(t *testing.T) {
	assert.Equal(t, 0.0, PutCallRatio(0, 500))
	assert.InDelta(t, 0.6667, PutCallRatio(300, 200), 1e-9)
}

func TestPredictIsDeterministic(t *testing.T) {
	p := New(DefaultConfig())
	a := p.Predict(chain(), types.Bullish, price(22000))
	b := p.Predict(chain(), types.Bullish, price(22000))
	assert.Equal(t, a, b)
}
