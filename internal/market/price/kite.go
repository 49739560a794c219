package price

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/store"
	"nifty-pulse/internal/types"
)

// TokenProvider resolves the Kite access token at call time. Tokens rotate
// daily, so it is never cached on the source.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

type KiteParams struct {
	APIKey     string
	Instrument string // e.g. "NSE:NIFTY 50"
	BaseURI    string // optional override of the Kite API root
	HTTPClient *http.Client
}

// KiteSource reads the last traded price through Kite Connect.
type KiteSource struct {
	p      KiteParams
	tokens TokenProvider
}

var _ interfaces.PriceSource = (*KiteSource)(nil)

func NewKiteSource(p KiteParams, tokens TokenProvider) *KiteSource {
	return &KiteSource{p: p, tokens: tokens}
}

func (k *KiteSource) Name() string { return "kite" }

func (k *KiteSource) client(token string) *kiteconnect.Client {
	kc := kiteconnect.New(k.p.APIKey)
	kc.SetAccessToken(token)
	if k.p.BaseURI != "" {
		kc.SetBaseURI(k.p.BaseURI)
	}
	if k.p.HTTPClient != nil {
		kc.SetHTTPClient(k.p.HTTPClient)
	}
	return kc
}

func (k *KiteSource) LatestPrice(ctx context.Context, symbol string) (types.Quote, error) {
	if k.p.APIKey == "" {
		return types.Quote{}, fmt.Errorf("%w: kite api key not configured", types.ErrSourceUnavailable)
	}

	token, err := k.tokens.AccessToken(ctx)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return types.Quote{}, fmt.Errorf("%w: kite access token missing", types.ErrSourceUnavailable)
		}
		return types.Quote{}, fmt.Errorf("%w: resolve kite token: %v", types.ErrSourceUnavailable, err)
	}

	if err := ctx.Err(); err != nil {
		return types.Quote{}, fmt.Errorf("%w: %v", types.ErrSourceUnavailable, err)
	}

	ltp, err := k.client(token).GetLTP(k.p.Instrument)
	if err != nil {
		return types.Quote{}, fmt.Errorf("%w: kite ltp %s: %v", types.ErrSourceUnavailable, k.p.Instrument, err)
	}

	q, ok := ltp[k.p.Instrument]
	if !ok || q.LastPrice <= 0 {
		return types.Quote{}, fmt.Errorf("%w: kite returned no price for %s", types.ErrDataMissing, k.p.Instrument)
	}

	return types.Quote{
		Symbol: symbol,
		Price:  q.LastPrice,
		Time:   time.Now().Unix(),
		Source: k.Name(),
	}, nil
}
