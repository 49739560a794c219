package marketobs

import (
	"context"
	"errors"
	"time"

	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/metrics"
	"nifty-pulse/internal/trace"
	"nifty-pulse/internal/types"
)

func fetchStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, types.ErrDataMissing):
		return "missing"
	default:
		return "unavailable"
	}
}

// logFailure logs a fetch that found nothing as a warning and anything
// else as an error, reporting the decorator's caller.
func logFailure(ctx context.Context, msg string, err error, args ...any) {
	if errors.Is(err, types.ErrDataMissing) {
		logger.WarnSkip(ctx, 2, msg, append([]any{"error", err}, args...)...)
		return
	}
	logger.ErrorWithErrSkip(ctx, 2, msg, err, args...)
}

// observablePrice wraps a PriceSource with tracing, logging and metrics
type observablePrice struct {
	src interfaces.PriceSource
}

var _ interfaces.PriceSource = (*observablePrice)(nil)

// WrapPrice wraps a price source with observability middleware
func WrapPrice(src interfaces.PriceSource) interfaces.PriceSource {
	return &observablePrice{src: src}
}

func (o *observablePrice) Name() string { return o.src.Name() }

func (o *observablePrice) LatestPrice(ctx context.Context, symbol string) (types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "price.LatestPrice")
	defer span.End()

	started := time.Now()
	logger.DebugSkip(ctx, 1, "Fetching latest price", "source", o.src.Name(), "symbol", symbol)

	q, err := o.src.LatestPrice(ctx, symbol)
	metrics.RecordFetch("price", fetchStatus(err), started)
	if err != nil {
		logFailure(ctx, "Failed to fetch latest price", err, "source", o.src.Name(), "symbol", symbol)
		return types.Quote{}, err
	}

	logger.DebugSkip(ctx, 1, "Latest price fetched", "source", q.Source, "symbol", symbol, "price", q.Price)
	return q, nil
}

type observableChain struct {
	src interfaces.ChainSource
}

var _ interfaces.ChainSource = (*observableChain)(nil)

// WrapChain wraps an option chain source with observability middleware
func WrapChain(src interfaces.ChainSource) interfaces.ChainSource {
	return &observableChain{src: src}
}

func (o *observableChain) Name() string { return o.src.Name() }

func (o *observableChain) OptionChain(ctx context.Context, symbol string) (types.OptionChain, error) {
	ctx, span := trace.StartSpan(ctx, "chain.OptionChain")
	defer span.End()

	started := time.Now()
	logger.DebugSkip(ctx, 1, "Fetching option chain", "source", o.src.Name(), "symbol", symbol)

	chain, err := o.src.OptionChain(ctx, symbol)
	metrics.RecordFetch("chain", fetchStatus(err), started)
	if err != nil {
		logFailure(ctx, "Failed to fetch option chain", err, "source", o.src.Name(), "symbol", symbol)
		return chain, err
	}

	logger.DebugSkip(ctx, 1, "Option chain fetched",
		"source", o.src.Name(),
		"symbol", symbol,
		"rows", len(chain.Rows),
		"underlying", chain.Underlying,
	)
	return chain, nil
}

type observableNews struct {
	src interfaces.NewsSource
}

var _ interfaces.NewsSource = (*observableNews)(nil)

// WrapNews wraps a headline source with observability middleware
func WrapNews(src interfaces.NewsSource) interfaces.NewsSource {
	return &observableNews{src: src}
}

func (o *observableNews) Name() string { return o.src.Name() }

func (o *observableNews) Headlines(ctx context.Context, max int) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "news.Headlines")
	defer span.End()

	started := time.Now()
	logger.DebugSkip(ctx, 1, "Fetching headlines", "source", o.src.Name(), "max", max)

	headlines, err := o.src.Headlines(ctx, max)
	metrics.RecordFetch("news", fetchStatus(err), started)
	if err != nil {
		logFailure(ctx, "Failed to fetch headlines", err, "source", o.src.Name())
		return headlines, err
	}

	logger.InfoSkip(ctx, 1, "Headlines fetched", "source", o.src.Name(), "count", len(headlines))
	return headlines, nil
}
