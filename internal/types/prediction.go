package types

import "errors"

// TrendLabel is the predicted short-term direction.
type TrendLabel string

const (
	Up           TrendLabel = "Up"
	Down         TrendLabel = "Down"
	TrendNeutral TrendLabel = "Neutral"
)

// PredictionStatus tells a real prediction apart from a declined one.
type PredictionStatus string

const (
	StatusOK               PredictionStatus = "ok"
	StatusInsufficientData PredictionStatus = "insufficient_data"
)

// Prediction is the TrendPredictor output. Trend is only meaningful when
// Status is StatusOK.
type Prediction struct {
	Status      PredictionStatus `json:"status"`
	Trend       TrendLabel       `json:"trend,omitempty"`
	Sentiment   SentimentLabel   `json:"sentiment"`
	TotalCallOI int64            `json:"total_call_oi"`
	TotalPutOI  int64            `json:"total_put_oi"`
	PCR         float64          `json:"pcr"`
	RowsUsed    int              `json:"rows_used"`
	TargetPrice *float64         `json:"target_price,omitempty"`
	Reason      string           `json:"reason"`
}

// Insufficient reports whether the predictor declined to produce a trend.
func (p Prediction) Insufficient() bool {
	return p.Status == StatusInsufficientData
}

// Error taxonomy for external collaborators.
var (
	// ErrSourceUnavailable covers network and parse failures.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrDataMissing means the collaborator answered with nothing usable.
	ErrDataMissing = errors.New("data missing")
)

// DiagnosticKind classifies a degraded part of a snapshot.
type DiagnosticKind string

const (
	KindSourceUnavailable  DiagnosticKind = "source_unavailable"
	KindDataMissing        DiagnosticKind = "data_missing"
	KindComputationSkipped DiagnosticKind = "computation_skipped"
)

// KindOf maps an error onto the diagnostic taxonomy.
func KindOf(err error) DiagnosticKind {
	if errors.Is(err, ErrDataMissing) {
		return KindDataMissing
	}
	return KindSourceUnavailable
}

// Diagnostic is a human-readable note about a degraded value.
type Diagnostic struct {
	Source  string         `json:"source"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

// Snapshot is one fully assembled dashboard render.
type Snapshot struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	GeneratedAt int64           `json:"generated_at"`
	Price       *Quote          `json:"price,omitempty"`
	Chain       *OptionChain    `json:"chain,omitempty"`
	Headlines   []string        `json:"headlines"`
	Sentiment   SentimentResult `json:"sentiment"`
	Prediction  Prediction      `json:"prediction"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	DurationMS  int64           `json:"duration_ms"`
}
