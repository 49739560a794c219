package predict

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"nifty-pulse/internal/types"
)

// Aggregation windows over the option chain rows.
const (
	WindowAll     = "ALL"
	WindowFirst   = "FIRST"
	WindowLast    = "LAST"
	WindowNearest = "NEAREST"
)

// Config selects the variant policies of the predictor.
type Config struct {
	Aggregation  string  // ALL, FIRST, LAST or NEAREST
	Window       int     // rows summed by FIRST, LAST and NEAREST
	MarginFactor float64 // the dominant side must exceed the other by this factor
	TargetDelta  float64 // fractional move for the target price, 0 disables it
	RequirePrice bool    // decline to predict without a price
}

// DefaultConfig sums the whole chain with no margin and a 1% target.
func DefaultConfig() Config {
	return Config{
		Aggregation:  WindowAll,
		Window:       10,
		MarginFactor: 1.0,
		TargetDelta:  0.01,
	}
}

// Predictor combines open interest totals with a sentiment label.
// It is pure: the same inputs always give the same prediction.
type Predictor struct {
	cfg Config
}

func New(cfg Config) *Predictor {
	if cfg.Aggregation == "" {
		cfg.Aggregation = WindowAll
	}
	if cfg.Window < 1 {
		cfg.Window = 10
	}
	if cfg.MarginFactor < 1.0 {
		cfg.MarginFactor = 1.0
	}
	if cfg.TargetDelta < 0 {
		cfg.TargetDelta = 0
	}
	return &Predictor{cfg: cfg}
}

func (p *Predictor) Config() Config { return p.cfg }

// Predict returns StatusInsufficientData instead of a trend when the chain
// is empty or a needed price is missing.
func (p *Predictor) Predict(rows []types.OptionChainRow, sentiment types.SentimentLabel, price *float64) types.Prediction {
	out := types.Prediction{Sentiment: sentiment}

	if len(rows) == 0 {
		return insufficient(out, "option chain is empty")
	}
	if p.cfg.RequirePrice && price == nil {
		return insufficient(out, "price is unavailable")
	}

	window, err := p.selectRows(rows, price)
	if err != nil {
		return insufficient(out, err.Error())
	}

	for _, r := range window {
		out.TotalCallOI += r.CallOpenInterest
		out.TotalPutOI += r.PutOpenInterest
	}
	out.RowsUsed = len(window)
	out.PCR = PutCallRatio(out.TotalCallOI, out.TotalPutOI)
	out.Status = types.StatusOK

	calls := float64(out.TotalCallOI)
	puts := float64(out.TotalPutOI)
	m := p.cfg.MarginFactor

	switch {
	case puts > calls*m && sentiment == types.Bullish:
		out.Trend = types.Up
		out.Reason = fmt.Sprintf("put OI %d exceeds call OI %d and headlines are Bullish", out.TotalPutOI, out.TotalCallOI)
	case calls > puts*m && sentiment == types.Bearish:
		out.Trend = types.Down
		out.Reason = fmt.Sprintf("call OI %d exceeds put OI %d and headlines are Bearish", out.TotalCallOI, out.TotalPutOI)
	default:
		out.Trend = types.TrendNeutral
		out.Reason = fmt.Sprintf("open interest (call %d, put %d) and %s sentiment do not agree on a direction",
			out.TotalCallOI, out.TotalPutOI, sentiment)
	}

	if price != nil && p.cfg.TargetDelta > 0 {
		t := TargetPrice(*price, out.Trend, p.cfg.TargetDelta)
		out.TargetPrice = &t
	}

	return out
}

func insufficient(out types.Prediction, reason string) types.Prediction {
	out.Status = types.StatusInsufficientData
	out.Trend = ""
	out.Reason = reason
	return out
}

func (p *Predictor) selectRows(rows []types.OptionChainRow, price *float64) ([]types.OptionChainRow, error) {
	n := p.cfg.Window
	if n > len(rows) {
		n = len(rows)
	}

	switch p.cfg.Aggregation {
	case WindowFirst:
		return rows[:n], nil
	case WindowLast:
		return rows[len(rows)-n:], nil
	case WindowNearest:
		if price == nil {
			return nil, fmt.Errorf("nearest-strike aggregation needs a price")
		}
		return nearestStrikes(rows, *price, n), nil
	default:
		return rows, nil
	}
}

// nearestStrikes returns the n rows whose strikes are closest to price,
// in their original order. Ties keep the earlier row.
func nearestStrikes(rows []types.OptionChainRow, price float64, n int) []types.OptionChainRow {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(rows[idx[a]].StrikePrice-price) < math.Abs(rows[idx[b]].StrikePrice-price)
	})

	keep := idx[:n]
	sort.Ints(keep)

	out := make([]types.OptionChainRow, 0, n)
	for _, i := range keep {
		out = append(out, rows[i])
	}
	return out
}

// PutCallRatio is put OI over call OI, 0 when there is no call OI.
func PutCallRatio(callOI, putOI int64) float64 {
	if callOI == 0 {
		return 0
	}
	ratio, _ := decimal.NewFromInt(putOI).DivRound(decimal.NewFromInt(callOI), 4).Float64()
	return ratio
}

// TargetPrice moves price by delta in the trend's direction and rounds
// half away from zero to two decimals. Neutral returns the rounded price.
func TargetPrice(price float64, trend types.TrendLabel, delta float64) float64 {
	p := decimal.NewFromFloat(price)
	d := decimal.NewFromFloat(delta)

	switch trend {
	case types.Up:
		p = p.Mul(decimal.NewFromInt(1).Add(d))
	case types.Down:
		p = p.Mul(decimal.NewFromInt(1).Sub(d))
	}

	out, _ := p.Round(2).Float64()
	return out
}
