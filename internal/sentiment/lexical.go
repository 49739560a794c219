package sentiment

import (
	"context"
	"math"
	"strings"
	"unicode"

	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/types"
)

// LexicalBackend scores text with Loughran-McDonald style word lists
// extended with market-headline vocabulary. It needs no network.
type LexicalBackend struct {
	positiveWords    map[string]bool
	negativeWords    map[string]bool
	uncertaintyWords map[string]bool
}

var _ interfaces.SentimentBackend = (*LexicalBackend)(nil)

// NewLexicalBackend creates a lexical backend
func NewLexicalBackend() *LexicalBackend {
	return &LexicalBackend{
		positiveWords:    wordSet(positiveWords),
		negativeWords:    wordSet(negativeWords),
		uncertaintyWords: wordSet(uncertaintyWords),
	}
}

func (lb *LexicalBackend) Name() string { return "lexical" }

// Classify never fails.
func (lb *LexicalBackend) Classify(_ context.Context, text string) (types.Classification, error) {
	polarity := lb.Polarity(text)

	label := types.LabelNeutral
	switch {
	case polarity > 0:
		label = types.LabelPositive
	case polarity < 0:
		label = types.LabelNegative
	}

	score := math.Abs(polarity)
	return types.Classification{
		Label:    label,
		Score:    score,
		Polarity: types.PolarityOf(label, score),
	}, nil
}

// Polarity returns the net word-list sentiment of text in [-1, 1],
// damped by hedging language.
func (lb *LexicalBackend) Polarity(text string) float64 {
	words := tokenize(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var pos, neg, unc int
	for _, w := range words {
		if lb.positiveWords[w] {
			pos++
		}
		if lb.negativeWords[w] {
			neg++
		}
		if lb.uncertaintyWords[w] {
			unc++
		}
	}

	n := float64(len(words))
	net := (float64(pos) - float64(neg)) / n
	uncertainty := math.Min(float64(unc)/n*20, 1.0)

	polarity := net * 10 * (1.0 - uncertainty*0.5)
	return math.Min(math.Max(polarity, -1.0), 1.0)
}

// tokenize splits text into words
func tokenize(text string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if w := strings.Trim(current.String(), "-"); w != "" {
			words = append(words, w)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return words
}

func wordSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var positiveWords = []string{
	"achieve", "advance", "advances", "beat", "beats", "benefit", "better",
	"boost", "boosts", "bull", "bullish", "climb", "climbs", "easing",
	"excellent", "favorable", "gain", "gains", "good", "great", "grew",
	"growth", "high", "higher", "improve", "improved", "improvement",
	"jump", "jumps", "optimistic", "outperform", "positive", "profit",
	"profitable", "progress", "rally", "rallies", "rebound", "rebounds",
	"record", "recovery", "rise", "rises", "robust", "soar", "soars",
	"solid", "strength", "strong", "stronger", "success", "surge", "surges",
	"upbeat", "upgrade", "upgrades",
}

var negativeWords = []string{
	"adverse", "bear", "bearish", "concern", "concerns", "crash", "crashes",
	"crisis", "cut", "cuts", "decline", "declines", "decrease", "deficit",
	"disappoint", "disappointing", "downgrade", "downgrades", "downturn",
	"drag", "drags", "drop", "drops", "fall", "falls", "falling", "fear",
	"fears", "headwind", "headwinds", "inflation", "loss", "losses", "lower",
	"negative", "plunge", "plunges", "poor", "recession", "risk", "risks",
	"selloff", "sell-off", "shed", "sheds", "sink", "sinks", "slide",
	"slides", "slip", "slips", "slowdown", "slump", "slumps", "tumble",
	"tumbles", "volatile", "volatility", "weak", "weakness", "weighs",
	"worse", "worst",
}

var uncertaintyWords = []string{
	"could", "likely", "may", "maybe", "might", "perhaps", "possible",
	"possibly", "uncertain", "uncertainty", "unclear", "unlikely", "would",
}
