package chain

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"nifty-pulse/internal/api"
	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/types"
)

// Columns holds zero-based cell indices within one option chain table row.
type Columns struct {
	Strike    int
	CallOI    int
	CallPrice int
	PutOI     int
	PutPrice  int
}

func (c Columns) max() int {
	m := c.Strike
	for _, v := range []int{c.CallOI, c.CallPrice, c.PutOI, c.PutPrice} {
		if v > m {
			m = v
		}
	}
	return m
}

type HTMLParams struct {
	URL         string
	RowSelector string
	ExpiryDate  string // stamped on every row; the table carries none
	Columns     Columns
}

// HTMLSource scrapes an option chain rendered as an HTML table.
type HTMLSource struct {
	client *api.Client
	p      HTMLParams
}

var _ interfaces.ChainSource = (*HTMLSource)(nil)

func NewHTMLSource(client *api.Client, p HTMLParams) *HTMLSource {
	return &HTMLSource{client: client, p: p}
}

func (h *HTMLSource) Name() string { return "html" }

func (h *HTMLSource) OptionChain(ctx context.Context, symbol string) (types.OptionChain, error) {
	resp, err := h.client.GET(ctx, h.p.URL, api.BrowserHeaders())
	if err != nil {
		return types.OptionChain{}, fmt.Errorf("%w: option chain page: %v", types.ErrSourceUnavailable, err)
	}

	chain, err := ParseHTMLTable(resp.Body, h.p.RowSelector, h.p.Columns)
	if err != nil {
		return types.OptionChain{}, fmt.Errorf("%w: %v", types.ErrSourceUnavailable, err)
	}
	chain.Symbol = symbol
	chain.Source = h.Name()
	if h.p.ExpiryDate != "" {
		chain.Expiries = []string{h.p.ExpiryDate}
		for i := range chain.Rows {
			chain.Rows[i].ExpiryDate = h.p.ExpiryDate
		}
	}

	if len(chain.Rows) == 0 {
		return chain, fmt.Errorf("%w: no option rows matched %q", types.ErrDataMissing, h.p.RowSelector)
	}
	return chain, nil
}

// ParseHTMLTable extracts option rows from an HTML document. Rows whose
// strike cell is not numeric (headers, totals) are skipped, as are rows
// with a negative or out of range open interest or price.
func ParseHTMLTable(body []byte, rowSelector string, cols Columns) (types.OptionChain, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return types.OptionChain{}, fmt.Errorf("parse option chain html: %w", err)
	}

	var chain types.OptionChain
	need := cols.max()
	doc.Find(rowSelector).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= need {
			return
		}
		cell := func(i int) string { return cells.Eq(i).Text() }

		strike, ok := parseNumber(cell(cols.Strike))
		if !ok || strike <= 0 {
			return
		}
		callOI, ok1 := parseCount(cell(cols.CallOI))
		putOI, ok2 := parseCount(cell(cols.PutOI))
		callPx, ok3 := parsePrice(cell(cols.CallPrice))
		putPx, ok4 := parsePrice(cell(cols.PutPrice))
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return
		}

		chain.Rows = append(chain.Rows, types.OptionChainRow{
			StrikePrice:      strike,
			CallOpenInterest: callOI,
			PutOpenInterest:  putOI,
			CallLastPrice:    callPx,
			PutLastPrice:     putPx,
		})
	})

	return chain, nil
}

// parseNumber reads "1,23,450.50" style cells. A dash or blank reads as 0.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, true
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseCount(s string) (int64, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return toCount(v)
}

func parsePrice(s string) (float64, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return toPrice(v)
}

// toCount converts an open interest figure, rejecting negatives, fractions
// and values past int64.
func toCount(v float64) (int64, bool) {
	if v < 0 || v >= math.MaxInt64 || v != math.Trunc(v) {
		return 0, false
	}
	return int64(v), true
}

func toPrice(v float64) (float64, bool) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
