package types

// SentimentLabel is the aggregated headline mood.
type SentimentLabel string

const (
	Bullish SentimentLabel = "Bullish"
	Bearish SentimentLabel = "Bearish"
	Neutral SentimentLabel = "Neutral"
)

// Backend labels for a single text.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Classification is a sentiment backend's verdict on one text.
type Classification struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Polarity float64 `json:"polarity"`
}

// PolarityOf maps a label/score pair onto [-1, 1].
func PolarityOf(label string, score float64) float64 {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	switch label {
	case LabelPositive:
		return score
	case LabelNegative:
		return -score
	default:
		return 0
	}
}

// HeadlineScore pairs a headline with its classification.
type HeadlineScore struct {
	Headline       string `json:"headline"`
	Classification `json:"classification"`
}

// SentimentResult is the scorer's output for a batch of headlines.
type SentimentResult struct {
	Label     SentimentLabel  `json:"label"`
	Average   float64         `json:"average"`
	Scored    int             `json:"scored"`
	Failed    int             `json:"failed"`
	Headlines []HeadlineScore `json:"headlines,omitempty"`
	Backend   string          `json:"backend"`
}
