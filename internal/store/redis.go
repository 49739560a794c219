package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when no access token is configured anywhere.
var ErrTokenNotFound = errors.New("access token not found")

// KeyValueGetter is the slice of a Redis client the token store needs.
type KeyValueGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// TokenStore resolves the broker access token. An explicit token wins;
// otherwise it is read from Redis, where the daily login flow leaves it.
type TokenStore struct {
	static string
	client KeyValueGetter
	key    string
}

// NewRedisClient opens a Redis client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opt), nil
}

// NewTokenStore builds a TokenStore. client may be nil when only a static
// token is used.
func NewTokenStore(static string, client KeyValueGetter, key string) *TokenStore {
	return &TokenStore{static: static, client: client, key: key}
}

// AccessToken returns the current access token.
func (ts *TokenStore) AccessToken(ctx context.Context) (string, error) {
	if ts.static != "" {
		return ts.static, nil
	}
	if ts.client == nil {
		return "", ErrTokenNotFound
	}

	val, err := ts.client.Get(ctx, ts.key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && val == "") {
		return "", fmt.Errorf("%w: redis key %q is empty", ErrTokenNotFound, ts.key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read access token from redis: %w", err)
	}
	return val, nil
}
