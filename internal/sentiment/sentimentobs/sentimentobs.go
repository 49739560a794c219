package sentimentobs

import (
	"context"

	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/metrics"
	"nifty-pulse/internal/trace"
	"nifty-pulse/internal/types"
)

// observableBackend wraps a SentimentBackend with observability (logging, tracing & metrics)
type observableBackend struct {
	backend interfaces.SentimentBackend
}

// Compile-time interface check
var _ interfaces.SentimentBackend = (*observableBackend)(nil)

// Wrap wraps a sentiment backend with observability middleware
func Wrap(backend interfaces.SentimentBackend) interfaces.SentimentBackend {
	return &observableBackend{backend: backend}
}

func (ob *observableBackend) Name() string { return ob.backend.Name() }

// Classify classifies one headline with observability
func (ob *observableBackend) Classify(ctx context.Context, text string) (types.Classification, error) {
	ctx, span := trace.StartSpan(ctx, "sentiment.Classify")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Classifying headline", "backend", ob.backend.Name(), "headline", text)

	c, err := ob.backend.Classify(ctx, text)
	if err != nil {
		metrics.HeadlineClassifications.WithLabelValues(ob.backend.Name(), "failed").Inc()
		logger.ErrorWithErrSkip(ctx, 1, "Failed to classify headline", err, "backend", ob.backend.Name())
		return c, err
	}

	metrics.HeadlineClassifications.WithLabelValues(ob.backend.Name(), c.Label).Inc()
	logger.DebugSkip(ctx, 1, "Headline classified",
		"backend", ob.backend.Name(),
		"label", c.Label,
		"score", c.Score,
		"polarity", c.Polarity,
	)
	return c, nil
}
