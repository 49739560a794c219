package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"nifty-pulse/internal/api"
	"nifty-pulse/internal/dashboard"
	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/journal"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/market/chain"
	"nifty-pulse/internal/market/marketobs"
	"nifty-pulse/internal/market/price"
	"nifty-pulse/internal/metrics"
	"nifty-pulse/internal/news"
	"nifty-pulse/internal/predict"
	"nifty-pulse/internal/sentiment"
	"nifty-pulse/internal/sentiment/sentimentobs"
	"nifty-pulse/internal/store"
	"nifty-pulse/internal/trace"
)

// initializeSystem initializes logger, tracer and metrics
func initializeSystem(logOut io.Writer) error {
	// Load environment variables
	_ = godotenv.Load()

	logCfg := logger.LoadConfigFromEnv()
	logCfg.Output = logOut
	if err := logger.InitWithConfig(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	metrics.Init()
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// newHTTPClient builds a client sharing the configured timeout, rate limit
// and circuit breaker policy. Each upstream gets its own breaker.
func newHTTPClient(cfg *store.Config, name string, opts ...api.ClientOption) *api.Client {
	base := []api.ClientOption{
		api.WithLogging(true),
		api.WithHeader("Accept-Language", "en-IN,en;q=0.9"),
		api.WithTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		api.WithRateLimit(cfg.HTTP.RequestsPerSec, cfg.HTTP.Burst),
		api.WithCircuitBreaker(name, cfg.HTTP.BreakerFailures, time.Duration(cfg.HTTP.BreakerCooldownS)*time.Second),
	}
	return api.NewClient(append(base, opts...)...)
}

// initializePrice builds the price providers in configured order
func initializePrice(ctx context.Context, cfg *store.Config, secrets *store.Secrets) (interfaces.PriceSource, error) {
	var sources []interfaces.PriceSource

	for _, p := range cfg.Price.Providers {
		switch p {
		case store.PriceYahoo:
			sources = append(sources, price.NewYahooSource(newHTTPClient(cfg, "yahoo"), price.YahooParams{
				BaseURL:  cfg.Price.YahooURL,
				Ticker:   cfg.Price.YahooSymbol,
				Range:    cfg.Price.Range,
				Interval: cfg.Price.Interval,
			}))
		case store.PriceKite:
			tokens, err := initializeTokenStore(ctx, cfg, secrets)
			if err != nil {
				return nil, err
			}
			sources = append(sources, price.NewKiteSource(price.KiteParams{
				APIKey:     secrets.KiteAPIKey,
				Instrument: cfg.Price.KiteInstrument,
				HTTPClient: newHTTPClient(cfg, "kite").HTTPClient(),
			}, tokens))
		}
	}

	return marketobs.WrapPrice(price.NewFallback(sources...)), nil
}

// initializeTokenStore resolves the Kite token from the environment or Redis
func initializeTokenStore(ctx context.Context, cfg *store.Config, secrets *store.Secrets) (*store.TokenStore, error) {
	if secrets.RedisURL == "" {
		if secrets.KiteAccessToken == "" {
			logger.Warn(ctx, "KITE provider enabled without KITE_ACCESS_TOKEN or REDIS_URL")
		}
		return store.NewTokenStore(secrets.KiteAccessToken, nil, cfg.Price.KiteTokenKey), nil
	}

	rdb, err := store.NewRedisClient(secrets.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Reading Kite access token from Redis", "key", cfg.Price.KiteTokenKey)
	return store.NewTokenStore(secrets.KiteAccessToken, rdb, cfg.Price.KiteTokenKey), nil
}

// initializeChain builds the option chain source
func initializeChain(cfg *store.Config) interfaces.ChainSource {
	var src interfaces.ChainSource

	switch cfg.Chain.Provider {
	case store.ChainHTML:
		h := cfg.Chain.HTML
		src = chain.NewHTMLSource(newHTTPClient(cfg, "chain-html"), chain.HTMLParams{
			URL:         h.URL,
			RowSelector: h.RowSelector,
			ExpiryDate:  h.ExpiryDate,
			Columns: chain.Columns{
				Strike:    h.StrikeCol,
				CallOI:    h.CallOICol,
				CallPrice: h.CallPriceCol,
				PutOI:     h.PutOICol,
				PutPrice:  h.PutPriceCol,
			},
		})
	default:
		src = chain.NewNSESource(newHTTPClient(cfg, "nse", api.WithCookieJar()), cfg.Chain.BaseURL, cfg.Chain.Expiry)
	}

	return marketobs.WrapChain(src)
}

// initializeNews builds the headline scraper
func initializeNews(cfg *store.Config) interfaces.NewsSource {
	p := news.Params{
		URL:      cfg.News.URL,
		Selector: cfg.News.Selector,
		Timeout:  time.Duration(cfg.News.RequestTimeoutMS) * time.Millisecond,
	}
	if !cfg.News.DisableFallback {
		p.FallbackQuery = cfg.News.FallbackQuery
	}
	return marketobs.WrapNews(news.NewScraper(p))
}

// initializeSentiment builds the configured backend once and hands it to the scorer
func initializeSentiment(ctx context.Context, cfg *store.Config, secrets *store.Secrets) *sentiment.Scorer {
	var backend interfaces.SentimentBackend

	switch cfg.Sentiment.Backend {
	case store.SentimentFinBERT:
		if secrets.HFAPIToken == "" {
			logger.Warn(ctx, "HF_API_TOKEN not set, FinBERT requests may be throttled")
		}
		backend = sentiment.NewFinBERTBackend(newHTTPClient(cfg, "finbert"), cfg.Sentiment.Model, cfg.Sentiment.Endpoint, secrets.HFAPIToken)
	case store.SentimentLLM:
		key := secrets.OpenAIAPIKey
		if cfg.Sentiment.Provider == sentiment.ProviderClaude {
			key = secrets.AnthropicAPIKey
		}
		backend = sentiment.NewLLMBackend(newHTTPClient(cfg, "llm"), sentiment.LLMParams{
			Provider: cfg.Sentiment.Provider,
			Model:    cfg.Sentiment.Model,
			APIKey:   key,
			Endpoint: cfg.Sentiment.Endpoint,
		})
	default:
		backend = sentiment.NewLexicalBackend()
	}

	logger.Info(ctx, "Sentiment backend ready", "backend", backend.Name(), "epsilon", cfg.SentimentEpsilon())
	return sentiment.NewScorer(sentimentobs.Wrap(backend), cfg.SentimentEpsilon())
}

// initializePredictor maps predict config onto the predictor
func initializePredictor(cfg *store.Config) *predict.Predictor {
	return predict.New(predict.Config{
		Aggregation:  cfg.Predict.Aggregation,
		Window:       cfg.Predict.Window,
		MarginFactor: cfg.Predict.MarginFactor,
		TargetDelta:  cfg.TargetDelta(),
		RequirePrice: cfg.Predict.RequirePrice,
	})
}

// initializeJournal opens the prediction journal and compresses old days
func initializeJournal(ctx context.Context, cfg *store.Config) dashboard.Recorder {
	if !cfg.Journal.Enabled {
		return nil
	}

	j := journal.New(cfg.Journal.Dir)
	n, err := j.CompressOlder(cfg.Journal.RetentionDays)
	if err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
	} else if n > 0 {
		logger.Info(ctx, "Compressed old journal files", "count", n)
	}
	return j
}

// initializeDashboard wires every collaborator into the dashboard service
func initializeDashboard(ctx context.Context, cfg *store.Config) (*dashboard.Service, error) {
	secrets, err := store.LoadSecrets()
	if err != nil {
		return nil, err
	}

	priceSrc, err := initializePrice(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}

	return dashboard.NewService(dashboard.Deps{
		Symbol:       cfg.Symbol,
		MaxHeadlines: cfg.News.MaxHeadlines,
		Price:        priceSrc,
		Chain:        initializeChain(cfg),
		News:         initializeNews(cfg),
		Scorer:       initializeSentiment(ctx, cfg, secrets),
		Predictor:    initializePredictor(cfg),
		Journal:      initializeJournal(ctx, cfg),
	}), nil
}
