package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

const scanBatch = 100

// Redis stores addresses as JSON strings with a per-key expiry.
type Redis struct {
	rdb        *redis.Client
	defaultTTL time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, defaultTTL time.Duration) *Redis {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Redis{rdb: rdb, defaultTTL: defaultTTL}
}

// NewRedisFromURL connects to rawURL and verifies the connection.
func NewRedisFromURL(rawURL, password string, defaultTTL time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if password != "" {
		opts.Password = password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedis(rdb, defaultTTL), nil
}

func (r *Redis) Get(ctx context.Context, key string) (cep.Address, bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return cep.Address{}, false, nil
	}
	if err != nil {
		return cep.Address{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var address cep.Address
	if err := json.Unmarshal(data, &address); err != nil {
		return cep.Address{}, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return address, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value cep.Address, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := r.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Clear deletes only keys under KeyPrefix; the rest of the database is untouched.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.rdb.Scan(ctx, 0, KeyPrefix+"*", scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	if len(batch) > 0 {
		if err := r.rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

var _ Cache = (*Redis)(nil)
