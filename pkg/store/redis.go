package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/radialmap/pkg/observability"
	"github.com/matzehuels/radialmap/pkg/view"
)

// RedisStore is a redis-backed Store for multi-instance server deployments.
// Override sets are stored as JSON blobs under a namespaced key, optionally
// expiring after a TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	// Addr is the redis host:port.
	Addr string

	// Password is optional; empty disables AUTH.
	Password string

	// DB selects the redis database number.
	DB int

	// TTL expires saved override sets after the given duration.
	// Zero keeps them forever.
	TTL time.Duration
}

// NewRedisStore connects to redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, prefix: "radialmap:overrides:", ttl: cfg.TTL}, nil
}

// Load retrieves the override set for a scope.
func (s *RedisStore) Load(ctx context.Context, scope string) (map[string]view.Point, error) {
	data, err := s.client.Get(ctx, s.prefix+scope).Bytes()
	if err == redis.Nil {
		observability.Store().OnLoad(ctx, "redis", 0, ErrNotFound)
		return nil, ErrNotFound
	}
	if err != nil {
		observability.Store().OnLoad(ctx, "redis", 0, err)
		return nil, fmt.Errorf("load overrides for %s: %w", scope, err)
	}

	var overrides map[string]view.Point
	if err := json.Unmarshal(data, &overrides); err != nil {
		observability.Store().OnLoad(ctx, "redis", 0, err)
		return nil, fmt.Errorf("decode overrides for %s: %w", scope, err)
	}
	observability.Store().OnLoad(ctx, "redis", len(overrides), nil)
	return overrides, nil
}

// Save replaces the override set for a scope.
func (s *RedisStore) Save(ctx context.Context, scope string, overrides map[string]view.Point) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		observability.Store().OnSave(ctx, "redis", 0, err)
		return fmt.Errorf("encode overrides for %s: %w", scope, err)
	}
	if err := s.client.Set(ctx, s.prefix+scope, data, s.ttl).Err(); err != nil {
		observability.Store().OnSave(ctx, "redis", 0, err)
		return fmt.Errorf("save overrides for %s: %w", scope, err)
	}
	observability.Store().OnSave(ctx, "redis", len(overrides), nil)
	return nil
}

// Clear removes the override set for a scope.
func (s *RedisStore) Clear(ctx context.Context, scope string) error {
	if err := s.client.Del(ctx, s.prefix+scope).Err(); err != nil {
		observability.Store().OnClear(ctx, "redis", err)
		return fmt.Errorf("clear overrides for %s: %w", scope, err)
	}
	observability.Store().OnClear(ctx, "redis", nil)
	return nil
}

// Close releases the underlying redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
