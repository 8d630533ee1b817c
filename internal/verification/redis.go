package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cerebro:verification:"

// RedisStore persists verification states as JSON values in Redis.
// Keys have no expiry; freshness is always judged at read time.
type RedisStore struct {
	client *redis.Client
}

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Load(ctx context.Context, userID string) (State, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("load verification %s: %w", userID, err)
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("decode verification %s: %w", userID, err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, userID string, s State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKeyPrefix+userID, raw, 0).Err(); err != nil {
		return fmt.Errorf("save verification %s: %w", userID, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
