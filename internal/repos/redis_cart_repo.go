package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"maisonaurore/internal/domain"
)

const (
	cartKeyPrefix   = "maisonAuroreCart:"
	markerKeyPrefix = "maisonAuroreLastAdded:"
)

// RedisCartRepo stores cart blobs and markers in redis. Carts idle for
// cartTTL expire, like an abandoned browser session.
type RedisCartRepo struct {
	client  *redis.Client
	cartTTL time.Duration
}

func NewRedisCartRepo(client *redis.Client, cartTTL time.Duration) *RedisCartRepo {
	return &RedisCartRepo{client: client, cartTTL: cartTTL}
}

func (r *RedisCartRepo) Read(ctx context.Context, sessionID string) ([]byte, error) {
	return r.get(ctx, cartKeyPrefix+sessionID)
}

func (r *RedisCartRepo) Write(ctx context.Context, sessionID string, blob []byte) error {
	if err := r.client.Set(ctx, cartKeyPrefix+sessionID, blob, r.cartTTL).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *RedisCartRepo) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

func (r *RedisCartRepo) ReadMarker(ctx context.Context, sessionID string) ([]byte, error) {
	return r.get(ctx, markerKeyPrefix+sessionID)
}

func (r *RedisCartRepo) WriteMarker(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.cartTTL
	}
	if err := r.client.Set(ctx, markerKeyPrefix+sessionID, blob, ttl).Err(); err != nil {
		return fmt.Errorf("redis set marker: %w", err)
	}
	return nil
}

func (r *RedisCartRepo) ClearMarker(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, markerKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete marker: %w", err)
	}
	return nil
}

func (r *RedisCartRepo) get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}
