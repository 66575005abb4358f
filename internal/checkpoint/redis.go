package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

// Redis-backed cursor, shared across restarts of the same instance
type RedisCheckpoint struct {
	rdb goredis.UniversalClient
	key string
}

func NewRedisCheckpoint(rdb goredis.UniversalClient, key string) *RedisCheckpoint {
	if key == "" {
		key = "personastats:checkpoint"
	}
	return &RedisCheckpoint{rdb: rdb, key: key}
}

func (r *RedisCheckpoint) Load(ctx context.Context) (uint64, error) {
	v, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint %s: %w", r.key, err)
	}

	h, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt checkpoint %s=%q: %w", r.key, v, err)
	}
	return h, nil
}

func (r *RedisCheckpoint) Commit(ctx context.Context, height uint64) error {
	if err := r.rdb.Set(ctx, r.key, strconv.FormatUint(height, 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to commit checkpoint %s: %w", r.key, err)
	}
	return nil
}
