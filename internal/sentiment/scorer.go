package sentiment

import (
	"context"
	"errors"
	"fmt"

	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/types"
)

// DefaultEpsilon is the half-width of the neutral band.
const DefaultEpsilon = 0.05

// Scorer turns a batch of headlines into one sentiment label.
type Scorer struct {
	backend interfaces.SentimentBackend
	epsilon float64
}

// NewScorer creates a scorer. A negative epsilon is treated as zero.
func NewScorer(backend interfaces.SentimentBackend, epsilon float64) *Scorer {
	if epsilon < 0 {
		epsilon = 0
	}
	return &Scorer{backend: backend, epsilon: epsilon}
}

// Score classifies every headline and averages the polarities of those
// that succeeded. Headlines that fail are skipped. When none succeed the
// result is Neutral and the error wraps types.ErrSourceUnavailable.
func (s *Scorer) Score(ctx context.Context, headlines []string) (types.SentimentResult, error) {
	res := types.SentimentResult{Label: types.Neutral, Backend: s.backend.Name()}
	if len(headlines) == 0 {
		return res, nil
	}

	var sum float64
	var errs []error
	for _, h := range headlines {
		c, err := s.backend.Classify(ctx, h)
		if err != nil {
			res.Failed++
			errs = append(errs, err)
			logger.Warn(ctx, "Headline classification failed", "backend", s.backend.Name(), "headline", h, "error", err)
			continue
		}
		res.Scored++
		sum += c.Polarity
		res.Headlines = append(res.Headlines, types.HeadlineScore{Headline: h, Classification: c})
	}

	if res.Scored == 0 {
		return res, fmt.Errorf("%w: all %d headlines failed to classify: %v",
			types.ErrSourceUnavailable, res.Failed, errors.Join(errs...))
	}

	res.Average = sum / float64(res.Scored)
	res.Label = LabelFor(res.Average, s.epsilon)
	return res, nil
}

// LabelFor maps an average polarity onto a label: above +epsilon is
// Bullish, below -epsilon is Bearish, anything else is Neutral.
func LabelFor(average, epsilon float64) types.SentimentLabel {
	switch {
	case average > epsilon:
		return types.Bullish
	case average < -epsilon:
		return types.Bearish
	default:
		return types.Neutral
	}
}
