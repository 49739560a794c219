package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Price providers
const (
	PriceYahoo = "YAHOO"
	PriceKite  = "KITE"
)

// Chain providers
const (
	ChainNSE  = "NSE_API"
	ChainHTML = "HTML"
)

// Sentiment backends
const (
	SentimentLexical = "LEXICAL"
	SentimentFinBERT = "FINBERT"
	SentimentLLM     = "LLM"
)

// Open-interest aggregation windows
const (
	AggregateAll     = "ALL"
	AggregateFirst   = "FIRST"
	AggregateLast    = "LAST"
	AggregateNearest = "NEAREST"
)

type Config struct {
	Symbol string `yaml:"symbol"`
	Price  struct {
		Providers      []string `yaml:"providers"`
		YahooSymbol    string   `yaml:"yahoo_symbol"`
		YahooURL       string   `yaml:"yahoo_url"`
		Range          string   `yaml:"range"`
		Interval       string   `yaml:"interval"`
		KiteInstrument string   `yaml:"kite_instrument"`
		KiteTokenKey   string   `yaml:"kite_token_key"`
	} `yaml:"price"`
	Chain struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		Expiry   string `yaml:"expiry"`
		HTML     struct {
			URL          string `yaml:"url"`
			RowSelector  string `yaml:"row_selector"`
			ExpiryDate   string `yaml:"expiry_date"`
			StrikeCol    int    `yaml:"strike_col"`
			CallOICol    int    `yaml:"call_oi_col"`
			CallPriceCol int    `yaml:"call_price_col"`
			PutOICol     int    `yaml:"put_oi_col"`
			PutPriceCol  int    `yaml:"put_price_col"`
		} `yaml:"html"`
	} `yaml:"chain"`
	News struct {
		URL              string `yaml:"url"`
		Selector         string `yaml:"selector"`
		MaxHeadlines     int    `yaml:"max_headlines"`
		FallbackQuery    string `yaml:"fallback_query"`
		DisableFallback  bool   `yaml:"disable_fallback"`
		RequestTimeoutMS int    `yaml:"request_timeout_ms"`
	} `yaml:"news"`
	Sentiment struct {
		Backend  string   `yaml:"backend"`
		Epsilon  *float64 `yaml:"epsilon"`
		Model    string   `yaml:"model"`
		Provider string   `yaml:"provider"` // OPENAI or CLAUDE, LLM backend only
		Endpoint string   `yaml:"endpoint"`
	} `yaml:"sentiment"`
	Predict struct {
		Aggregation  string   `yaml:"aggregation"`
		Window       int      `yaml:"window"`
		MarginFactor float64  `yaml:"margin_factor"`
		TargetDelta  *float64 `yaml:"target_delta"`
		RequirePrice bool     `yaml:"require_price"`
	} `yaml:"predict"`
	HTTP struct {
		TimeoutSeconds   int     `yaml:"timeout_seconds"`
		RequestsPerSec   float64 `yaml:"requests_per_sec"`
		Burst            int     `yaml:"burst"`
		BreakerFailures  uint32  `yaml:"breaker_failures"`
		BreakerCooldownS int     `yaml:"breaker_cooldown_seconds"`
	} `yaml:"http"`
	Server struct {
		Addr             string `yaml:"addr"`
		ChainPreviewRows int    `yaml:"chain_preview_rows"`
	} `yaml:"server"`
	Journal struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
}

// Default returns a configuration with every default applied, the same
// values LoadConfig fills in for an empty file.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "NIFTY"
	}

	if len(c.Price.Providers) == 0 {
		c.Price.Providers = []string{PriceYahoo}
	}
	if c.Price.YahooSymbol == "" {
		c.Price.YahooSymbol = "^NSEI"
	}
	if c.Price.YahooURL == "" {
		c.Price.YahooURL = "https://query1.finance.yahoo.com"
	}
	if c.Price.Range == "" {
		c.Price.Range = "1d"
	}
	if c.Price.Interval == "" {
		c.Price.Interval = "5m"
	}
	if c.Price.KiteInstrument == "" {
		c.Price.KiteInstrument = "NSE:NIFTY 50"
	}
	if c.Price.KiteTokenKey == "" {
		c.Price.KiteTokenKey = "kite:access_token"
	}

	if c.Chain.Provider == "" {
		c.Chain.Provider = ChainNSE
	}
	if c.Chain.BaseURL == "" {
		c.Chain.BaseURL = "https://www.nseindia.com"
	}
	if c.Chain.HTML.RowSelector == "" {
		c.Chain.HTML.RowSelector = "table#optionChainTable-indices tbody tr"
	}
	// Classic NSE layout: chart | calls(10) | strike | puts(10) | chart
	if c.Chain.HTML.StrikeCol == 0 {
		c.Chain.HTML.StrikeCol = 11
	}
	if c.Chain.HTML.CallOICol == 0 {
		c.Chain.HTML.CallOICol = 1
	}
	if c.Chain.HTML.CallPriceCol == 0 {
		c.Chain.HTML.CallPriceCol = 5
	}
	if c.Chain.HTML.PutOICol == 0 {
		c.Chain.HTML.PutOICol = 21
	}
	if c.Chain.HTML.PutPriceCol == 0 {
		c.Chain.HTML.PutPriceCol = 17
	}

	if c.News.URL == "" {
		c.News.URL = "https://www.moneycontrol.com/news/business/markets/"
	}
	if c.News.Selector == "" {
		c.News.Selector = "h2"
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 5
	}
	if c.News.FallbackQuery == "" {
		c.News.FallbackQuery = "NIFTY stock market India"
	}
	if c.News.RequestTimeoutMS == 0 {
		c.News.RequestTimeoutMS = 15000
	}

	if c.Sentiment.Backend == "" {
		c.Sentiment.Backend = SentimentLexical
	}
	if c.Sentiment.Model == "" {
		switch strings.ToUpper(c.Sentiment.Backend) {
		case SentimentFinBERT:
			c.Sentiment.Model = "ProsusAI/finbert"
		case SentimentLLM:
			c.Sentiment.Model = "gpt-4o-mini"
		}
	}
	if c.Sentiment.Epsilon == nil {
		c.Sentiment.Epsilon = floatPtr(0.05)
	}
	if c.Sentiment.Provider == "" {
		c.Sentiment.Provider = "OPENAI"
	}

	if c.Predict.Aggregation == "" {
		c.Predict.Aggregation = AggregateAll
	}
	if c.Predict.Window == 0 {
		c.Predict.Window = 10
	}
	if c.Predict.MarginFactor == 0 {
		c.Predict.MarginFactor = 1.0
	}
	if c.Predict.TargetDelta == nil {
		c.Predict.TargetDelta = floatPtr(0.01)
	}

	if c.HTTP.TimeoutSeconds == 0 {
		c.HTTP.TimeoutSeconds = 30
	}
	if c.HTTP.RequestsPerSec == 0 {
		c.HTTP.RequestsPerSec = 2
	}
	if c.HTTP.Burst == 0 {
		c.HTTP.Burst = 4
	}
	if c.HTTP.BreakerFailures == 0 {
		c.HTTP.BreakerFailures = 3
	}
	if c.HTTP.BreakerCooldownS == 0 {
		c.HTTP.BreakerCooldownS = 60
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.Server.ChainPreviewRows == 0 {
		c.Server.ChainPreviewRows = 5
	}

	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs/predictions"
	}
}

func (c *Config) Validate() error {
	for _, p := range c.Price.Providers {
		if p != PriceYahoo && p != PriceKite {
			return fmt.Errorf("invalid price provider '%s': must be 'YAHOO' or 'KITE'", p)
		}
	}
	if c.Chain.Provider != ChainNSE && c.Chain.Provider != ChainHTML {
		return fmt.Errorf("invalid chain.provider '%s': must be 'NSE_API' or 'HTML'", c.Chain.Provider)
	}
	if c.Chain.Provider == ChainHTML && c.Chain.HTML.URL == "" {
		return errors.New("chain.html.url is required when chain.provider is HTML")
	}
	if c.Chain.Expiry != "" && c.Chain.Expiry != "NEAREST" {
		return fmt.Errorf("chain.expiry must be empty or 'NEAREST', got '%s'", c.Chain.Expiry)
	}
	if c.News.MaxHeadlines < 1 || c.News.MaxHeadlines > 5 {
		return fmt.Errorf("news.max_headlines must be between 1-5, got %d", c.News.MaxHeadlines)
	}
	switch c.Sentiment.Backend {
	case SentimentLexical, SentimentFinBERT, SentimentLLM:
	default:
		return fmt.Errorf("sentiment.backend must be 'LEXICAL', 'FINBERT' or 'LLM', got '%s'", c.Sentiment.Backend)
	}
	if c.Sentiment.Backend == SentimentLLM && c.Sentiment.Provider != "OPENAI" && c.Sentiment.Provider != "CLAUDE" {
		return fmt.Errorf("sentiment.provider must be 'OPENAI' or 'CLAUDE', got '%s'", c.Sentiment.Provider)
	}
	if eps := c.SentimentEpsilon(); eps < 0 || eps >= 1 {
		return fmt.Errorf("sentiment.epsilon must be in [0, 1), got %.3f", eps)
	}
	switch c.Predict.Aggregation {
	case AggregateAll, AggregateFirst, AggregateLast, AggregateNearest:
	default:
		return fmt.Errorf("predict.aggregation must be 'ALL', 'FIRST', 'LAST' or 'NEAREST', got '%s'", c.Predict.Aggregation)
	}
	if c.Predict.Window < 1 {
		return fmt.Errorf("predict.window must be positive, got %d", c.Predict.Window)
	}
	if c.Predict.MarginFactor < 1.0 {
		return fmt.Errorf("predict.margin_factor must be >= 1.0, got %.2f", c.Predict.MarginFactor)
	}
	if d := c.TargetDelta(); d < 0 || d >= 1 {
		return fmt.Errorf("predict.target_delta must be in [0, 1), got %.3f", d)
	}
	if c.HTTP.RequestsPerSec < 0 {
		return fmt.Errorf("http.requests_per_sec must not be negative, got %.2f", c.HTTP.RequestsPerSec)
	}
	return nil
}

// LoadConfig reads a YAML config file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML bytes, applies defaults and validates.
func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.normalize()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

func (c *Config) normalize() {
	for i, p := range c.Price.Providers {
		c.Price.Providers[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	c.Chain.Provider = strings.ToUpper(c.Chain.Provider)
	c.Chain.Expiry = strings.ToUpper(c.Chain.Expiry)
	c.Sentiment.Backend = strings.ToUpper(c.Sentiment.Backend)
	c.Sentiment.Provider = strings.ToUpper(c.Sentiment.Provider)
	c.Predict.Aggregation = strings.ToUpper(c.Predict.Aggregation)
}

// SentimentEpsilon is the neutral band half-width around zero polarity.
func (c *Config) SentimentEpsilon() float64 {
	if c.Sentiment.Epsilon == nil {
		return 0
	}
	return *c.Sentiment.Epsilon
}

// TargetDelta is the fractional move used for the target price; 0 disables it.
func (c *Config) TargetDelta() float64 {
	if c.Predict.TargetDelta == nil {
		return 0
	}
	return *c.Predict.TargetDelta
}

func floatPtr(v float64) *float64 { return &v }
