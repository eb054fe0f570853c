package geocache

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces location keys in a shared Redis.
const DefaultRedisPrefix = "routeweather:location:"

// Redis stores location keys as plain string values.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithTTL sets the expiration of stored keys.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewRedis connects a cache to the Redis server at address.
func NewRedis(address, password string, db int, opts ...RedisOption) *Redis {
	return NewRedisFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(city string) string {
	return r.prefix + Normalize(city)
}

// Lookup implements forecast.KeyCache.
func (r *Redis) Lookup(ctx context.Context, city string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(city)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

// Store implements forecast.KeyCache.
func (r *Redis) Store(ctx context.Context, city, key string) error {
	if err := r.client.Set(ctx, r.key(city), key, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity for the health endpoint.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
