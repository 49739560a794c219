package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nifty-pulse/internal/api"
	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/types"
)

const huggingFaceInferenceURL = "https://api-inference.huggingface.co/models/"

// FinBERTBackend classifies text with a FinBERT model served by the
// Hugging Face inference API.
type FinBERTBackend struct {
	client   *api.Client
	endpoint string
	token    string
	retry    *api.RetryConfig
}

var _ interfaces.SentimentBackend = (*FinBERTBackend)(nil)

// NewFinBERTBackend builds a backend for model. endpoint overrides the
// inference URL entirely when set.
func NewFinBERTBackend(client *api.Client, model, endpoint, token string) *FinBERTBackend {
	if endpoint == "" {
		endpoint = huggingFaceInferenceURL + model
	}
	return &FinBERTBackend{
		client:   client,
		endpoint: endpoint,
		token:    token,
		// the hosted model answers 503 while it loads
		retry: &api.RetryConfig{
			MaxAttempts: 3,
			InitialWait: 2 * time.Second,
			MaxWait:     10 * time.Second,
		},
	}
}

func (fb *FinBERTBackend) Name() string { return "finbert" }

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (fb *FinBERTBackend) Classify(ctx context.Context, text string) (types.Classification, error) {
	req := api.NewRequest(http.MethodPost, fb.endpoint).
		WithContext(ctx).
		WithBody(map[string]any{"inputs": text})
	if fb.token != "" {
		req.WithHeader("Authorization", "Bearer "+fb.token)
	}

	resp, err := fb.client.DoWithRetry(req, fb.retry)
	if err != nil {
		return types.Classification{}, fmt.Errorf("%w: finbert inference: %v", types.ErrSourceUnavailable, err)
	}

	scores, err := parseLabelScores(resp.Body)
	if err != nil {
		return types.Classification{}, fmt.Errorf("%w: %v", types.ErrSourceUnavailable, err)
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	label := normalizeLabel(best.Label)
	return types.Classification{
		Label:    label,
		Score:    best.Score,
		Polarity: types.PolarityOf(label, best.Score),
	}, nil
}

// parseLabelScores accepts both the nested [[...]] shape returned for a
// single input and a flat [...] list.
func parseLabelScores(body []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return nil, fmt.Errorf("inference error: %s", apiErr.Error)
	}
	return nil, errors.New("unexpected inference response")
}

func normalizeLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "pos", "bullish":
		return types.LabelPositive
	case "negative", "neg", "bearish":
		return types.LabelNegative
	default:
		return types.LabelNeutral
	}
}
