package price

import (
	"context"
	"errors"
	"fmt"

	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/types"
)

// Fallback tries each source in order and returns the first quote.
type Fallback struct {
	sources []interfaces.PriceSource
}

var _ interfaces.PriceSource = (*Fallback)(nil)

func NewFallback(sources ...interfaces.PriceSource) *Fallback {
	return &Fallback{sources: sources}
}

func (f *Fallback) Name() string {
	if len(f.sources) == 1 {
		return f.sources[0].Name()
	}
	return "price"
}

func (f *Fallback) LatestPrice(ctx context.Context, symbol string) (types.Quote, error) {
	if len(f.sources) == 0 {
		return types.Quote{}, fmt.Errorf("%w: no price providers configured", types.ErrSourceUnavailable)
	}

	var errs []error
	for _, src := range f.sources {
		q, err := src.LatestPrice(ctx, symbol)
		if err == nil {
			return q, nil
		}
		logger.Warn(ctx, "Price provider failed", "provider", src.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	return types.Quote{}, errors.Join(errs...)
}
