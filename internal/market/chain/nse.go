package chain

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"nifty-pulse/internal/api"
	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/types"
)

// ExpiryNearest keeps only the first expiry NSE lists.
const ExpiryNearest = "NEAREST"

// NSESource reads the index option chain from the NSE JSON API. NSE rejects
// requests without session cookies, so every fetch warms the jar first.
type NSESource struct {
	client  *api.Client
	baseURL string
	expiry  string
}

var _ interfaces.ChainSource = (*NSESource)(nil)

// NewNSESource expects a client built with api.WithCookieJar.
func NewNSESource(client *api.Client, baseURL, expiry string) *NSESource {
	return &NSESource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		expiry:  strings.ToUpper(expiry),
	}
}

func (n *NSESource) Name() string { return "nse" }

type nseLeg struct {
	OpenInterest float64 `json:"openInterest"`
	LastPrice    float64 `json:"lastPrice"`
}

type nseRecord struct {
	StrikePrice float64 `json:"strikePrice"`
	ExpiryDate  string  `json:"expiryDate"`
	CE          *nseLeg `json:"CE"`
	PE          *nseLeg `json:"PE"`
}

type nseChainResponse struct {
	Records struct {
		ExpiryDates     []string    `json:"expiryDates"`
		UnderlyingValue float64     `json:"underlyingValue"`
		Data            []nseRecord `json:"data"`
	} `json:"records"`
}

// OptionChain returns rows in the order NSE lists them.
func (n *NSESource) OptionChain(ctx context.Context, symbol string) (types.OptionChain, error) {
	if err := n.client.WarmUp(ctx, n.baseURL+"/option-chain"); err != nil {
		logger.Debug(ctx, "NSE warm-up failed", "error", err)
	}

	endpoint := fmt.Sprintf("%s/api/option-chain-indices?symbol=%s", n.baseURL, url.QueryEscape(symbol))
	resp, err := n.client.GET(ctx, endpoint, api.NSEHeaders())
	if err != nil {
		return types.OptionChain{}, fmt.Errorf("%w: nse option chain %s: %v", types.ErrSourceUnavailable, symbol, err)
	}

	var raw nseChainResponse
	if err := resp.ParseJSON(&raw); err != nil {
		return types.OptionChain{}, fmt.Errorf("%w: %v", types.ErrSourceUnavailable, err)
	}

	keep := ""
	if n.expiry == ExpiryNearest && len(raw.Records.ExpiryDates) > 0 {
		keep = raw.Records.ExpiryDates[0]
	}

	chain := types.OptionChain{
		Symbol:     symbol,
		Underlying: raw.Records.UnderlyingValue,
		Expiries:   raw.Records.ExpiryDates,
		Source:     n.Name(),
	}
	for _, d := range raw.Records.Data {
		if keep != "" && d.ExpiryDate != keep {
			continue
		}
		row, ok := d.row()
		if !ok {
			logger.Debug(ctx, "Skipping malformed NSE option row", "strike", d.StrikePrice, "expiry", d.ExpiryDate)
			continue
		}
		chain.Rows = append(chain.Rows, row)
	}

	if len(chain.Rows) == 0 {
		return chain, fmt.Errorf("%w: nse returned an empty option chain for %s", types.ErrDataMissing, symbol)
	}
	return chain, nil
}

// row converts one NSE record. A missing side reads as zeros; a negative or
// out of range figure rejects the record.
func (d nseRecord) row() (types.OptionChainRow, bool) {
	row := types.OptionChainRow{StrikePrice: d.StrikePrice, ExpiryDate: d.ExpiryDate}
	ok := true
	if d.CE != nil {
		var okOI, okPx bool
		row.CallOpenInterest, okOI = toCount(d.CE.OpenInterest)
		row.CallLastPrice, okPx = toPrice(d.CE.LastPrice)
		ok = okOI && okPx
	}
	if d.PE != nil {
		var okOI, okPx bool
		row.PutOpenInterest, okOI = toCount(d.PE.OpenInterest)
		row.PutLastPrice, okPx = toPrice(d.PE.LastPrice)
		ok = ok && okOI && okPx
	}
	return row, ok
}
