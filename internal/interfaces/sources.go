package interfaces

import (
	"context"

	"nifty-pulse/internal/types"
)

// PriceSource returns the latest traded price of an index.
type PriceSource interface {
	Name() string
	LatestPrice(ctx context.Context, symbol string) (types.Quote, error)
}

// ChainSource returns the option chain for an index.
type ChainSource interface {
	Name() string
	OptionChain(ctx context.Context, symbol string) (types.OptionChain, error)
}

// NewsSource returns up to max recent headlines in page order.
type NewsSource interface {
	Name() string
	Headlines(ctx context.Context, max int) ([]string, error)
}
