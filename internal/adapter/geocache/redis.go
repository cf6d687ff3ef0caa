package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "geocode:"

// RedisStore is a shared cache tier so geocoding results survive restarts
// and are reused across instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. Entries expire after ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Dial parses a redis:// URL and checks the server is reachable.
func Dial(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

// Get returns the cached result for key. A missing key is not an error.
func (s *RedisStore) Get(ctx context.Context, key string) (domain.GeocodingResult, bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GeocodingResult{}, false, nil
	}
	if err != nil {
		return domain.GeocodingResult{}, false, fmt.Errorf("redis get: %w", err)
	}

	var result domain.GeocodingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.GeocodingResult{}, false, fmt.Errorf("unmarshal cached result: %w", err)
	}
	return result, true, nil
}

// Set stores result under key with the store's TTL.
func (s *RedisStore) Set(ctx context.Context, key string, result domain.GeocodingResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// CheckReadiness pings the server.
func (s *RedisStore) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
