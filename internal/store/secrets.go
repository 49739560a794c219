package store

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Secrets holds credentials that never live in config.yaml.
type Secrets struct {
	KiteAPIKey      string `envconfig:"KITE_API_KEY"`
	KiteAccessToken string `envconfig:"KITE_ACCESS_TOKEN"`
	RedisURL        string `envconfig:"REDIS_URL"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	HFAPIToken      string `envconfig:"HF_API_TOKEN"`
}

// LoadSecrets reads Secrets from the process environment.
func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to load secrets from environment: %w", err)
	}
	return &s, nil
}
