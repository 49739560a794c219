package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"nifty-pulse/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var ist = time.FixedZone("IST", 19800)

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"fmt2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
	}
	t, err := template.New("dashboard").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	return t, nil
}

type headlineView struct {
	Headline string
	Label    string
	Score    float64
	Scored   bool
}

type pageView struct {
	ID          string
	Symbol      string
	GeneratedAt string
	DurationMS  int64
	Price       *types.Quote
	ChainRows   []types.OptionChainRow
	ChainTotal  int
	Underlying  float64
	Sentiment   types.SentimentResult
	Headlines   []headlineView
	Prediction  types.Prediction
	Diagnostics []types.Diagnostic
}

func newPageView(s *types.Snapshot, previewRows int) pageView {
	v := pageView{
		ID:          s.ID,
		Symbol:      s.Symbol,
		GeneratedAt: time.Unix(s.GeneratedAt, 0).In(ist).Format("02 Jan 2006 15:04:05 MST"),
		DurationMS:  s.DurationMS,
		Price:       s.Price,
		Sentiment:   s.Sentiment,
		Prediction:  s.Prediction,
		Diagnostics: s.Diagnostics,
	}

	if s.Chain != nil {
		v.ChainTotal = len(s.Chain.Rows)
		v.Underlying = s.Chain.Underlying
		v.ChainRows = s.Chain.Rows
		if previewRows > 0 && len(v.ChainRows) > previewRows {
			v.ChainRows = v.ChainRows[:previewRows]
		}
	}

	scored := make(map[string]types.Classification, len(s.Sentiment.Headlines))
	for _, h := range s.Sentiment.Headlines {
		scored[h.Headline] = h.Classification
	}
	for _, h := range s.Headlines {
		hv := headlineView{Headline: h}
		if c, ok := scored[h]; ok {
			hv.Label, hv.Score, hv.Scored = c.Label, c.Score, true
		}
		v.Headlines = append(v.Headlines, hv)
	}

	return v
}
