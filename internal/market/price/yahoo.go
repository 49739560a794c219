package price

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"nifty-pulse/internal/api"
	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/types"
)

// YahooSource reads the last intraday close from the Yahoo chart API.
type YahooSource struct {
	client   *api.Client
	baseURL  string
	ticker   string
	rng      string
	interval string
}

var _ interfaces.PriceSource = (*YahooSource)(nil)

// YahooParams configures a YahooSource.
type YahooParams struct {
	BaseURL  string // e.g. https://query1.finance.yahoo.com
	Ticker   string // e.g. ^NSEI
	Range    string // e.g. 1d
	Interval string // e.g. 5m
}

func NewYahooSource(client *api.Client, p YahooParams) *YahooSource {
	return &YahooSource{
		client:   client,
		baseURL:  p.BaseURL,
		ticker:   p.Ticker,
		rng:      p.Range,
		interval: p.Interval,
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// LatestPrice returns the close of the most recent bar that has one.
func (y *YahooSource) LatestPrice(ctx context.Context, symbol string) (types.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		y.baseURL, url.PathEscape(y.ticker), url.QueryEscape(y.rng), url.QueryEscape(y.interval))

	resp, err := y.client.GET(ctx, endpoint, api.YahooFinanceHeaders())
	if err != nil {
		return types.Quote{}, fmt.Errorf("%w: yahoo chart %s: %v", types.ErrSourceUnavailable, y.ticker, err)
	}

	var chart chartResponse
	if err := resp.ParseJSON(&chart); err != nil {
		return types.Quote{}, fmt.Errorf("%w: %v", types.ErrSourceUnavailable, err)
	}
	if chart.Chart.Error != nil {
		return types.Quote{}, fmt.Errorf("%w: yahoo error %s: %s", types.ErrSourceUnavailable,
			chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return types.Quote{}, fmt.Errorf("%w: yahoo returned no result for %s", types.ErrDataMissing, y.ticker)
	}

	res := chart.Chart.Result[0]
	if len(res.Indicators.Quote) > 0 {
		closes := res.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] == nil {
				continue
			}
			ts := time.Now().Unix()
			if i < len(res.Timestamp) {
				ts = res.Timestamp[i]
			}
			return types.Quote{Symbol: symbol, Price: *closes[i], Time: ts, Source: y.Name()}, nil
		}
	}

	return types.Quote{}, fmt.Errorf("%w: no closing prices for %s", types.ErrDataMissing, y.ticker)
}
