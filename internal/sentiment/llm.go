package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nifty-pulse/internal/api"
	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/types"
)

// LLM providers
const (
	ProviderOpenAI = "OPENAI"
	ProviderClaude = "CLAUDE"
)

const (
	openAIChatURL     = "https://api.openai.com/v1/chat/completions"
	claudeMessagesURL = "https://api.anthropic.com/v1/messages"

	systemPrompt = "You are a financial analyst classifying Indian stock market headlines. Respond ONLY with valid JSON."
)

// LLMParams configures an LLMBackend
type LLMParams struct {
	Provider string // OPENAI or CLAUDE
	Model    string
	APIKey   string
	Endpoint string // optional override of the provider URL
}

// LLMBackend classifies headlines with a chat completion model.
type LLMBackend struct {
	client *api.Client
	p      LLMParams
}

var _ interfaces.SentimentBackend = (*LLMBackend)(nil)

func NewLLMBackend(client *api.Client, p LLMParams) *LLMBackend {
	p.Provider = strings.ToUpper(p.Provider)
	if p.Endpoint == "" {
		switch p.Provider {
		case ProviderClaude:
			p.Endpoint = claudeMessagesURL
		default:
			p.Endpoint = openAIChatURL
		}
	}
	return &LLMBackend{client: client, p: p}
}

func (lb *LLMBackend) Name() string { return "llm:" + strings.ToLower(lb.p.Provider) }

type llmVerdict struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

func (lb *LLMBackend) Classify(ctx context.Context, text string) (types.Classification, error) {
	if lb.p.APIKey == "" {
		return types.Classification{}, fmt.Errorf("%w: %s API key missing", types.ErrSourceUnavailable, lb.p.Provider)
	}

	prompt := buildHeadlinePrompt(text)

	var content string
	var err error
	switch lb.p.Provider {
	case ProviderOpenAI:
		content, err = lb.completeOpenAI(ctx, prompt)
	case ProviderClaude:
		content, err = lb.completeClaude(ctx, prompt)
	default:
		return types.Classification{}, fmt.Errorf("%w: unsupported LLM provider %s", types.ErrSourceUnavailable, lb.p.Provider)
	}
	if err != nil {
		return types.Classification{}, fmt.Errorf("%w: %v", types.ErrSourceUnavailable, err)
	}

	var v llmVerdict
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &v); err != nil {
		return types.Classification{}, fmt.Errorf("%w: invalid JSON response: %v", types.ErrSourceUnavailable, err)
	}

	label := normalizeLabel(v.Sentiment)
	score := v.Score
	if score < 0 {
		score = -score
	}
	return types.Classification{
		Label:    label,
		Score:    score,
		Polarity: types.PolarityOf(label, score),
	}, nil
}

func buildHeadlinePrompt(headline string) string {
	schema := `{"sentiment": "positive|negative|neutral", "score": 0.0 to 1.0 (confidence)}`

	return fmt.Sprintf(`Classify the sentiment of this market news headline for the NIFTY 50 index over the next trading session.

Headline: %s

Respond ONLY with valid JSON matching this schema:
%s`, headline, schema)
}

func (lb *LLMBackend) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": lb.p.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.0,
		"max_tokens":  60,
	}

	resp, err := lb.client.POST(ctx, lb.p.Endpoint, body, map[string]string{
		"Authorization": "Bearer " + lb.p.APIKey,
	})
	if err != nil {
		return "", err
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}

func (lb *LLMBackend) completeClaude(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      lb.p.Model,
		"max_tokens": 60,
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	resp, err := lb.client.POST(ctx, lb.p.Endpoint, body, map[string]string{
		"x-api-key":         lb.p.APIKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Content) == 0 {
		return "", errors.New("no content")
	}

	return strings.TrimSpace(r.Content[0].Text), nil
}

// stripCodeFence removes a ```json fence some models wrap answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
