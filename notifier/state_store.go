package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys under which each stream caches its last stored fingerprint.
const (
	caseStateKey     = "case_hash"
	hospitalStateKey = "hospital_hash"
)

// StateStore holds the last stored fingerprint per stream. An absent key is
// reported as an empty value, which DetectChange treats as first-run.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// RedisStateStore is the production StateStore.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a StateStore backed by Redis
func NewRedisStateStore(config RedisConfig) *RedisStateStore {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &RedisStateStore{
		client: redis.NewClient(&redis.Options{
			Addr:         config.Addr,
			Password:     config.Password,
			DB:           config.DB,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
	}
}

// Get returns the stored value, or "" when the key was never set.
func (s *RedisStateStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: get %q: %v: %w", key, err, ErrStore)
	}

	return v, nil
}

// Set stores the value under key, overwriting any previous one.
func (s *RedisStateStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("state: set %q: %v: %w", key, err, ErrStore)
	}

	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStateStore) Close() error {
	return s.client.Close()
}
