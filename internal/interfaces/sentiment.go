package interfaces

import (
	"context"

	"nifty-pulse/internal/types"
)

// SentimentBackend classifies one piece of text.
type SentimentBackend interface {
	Name() string
	Classify(ctx context.Context, text string) (types.Classification, error)
}
