package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angeloszaimis/cep-resolver/internal/cep"
)

const (
	KeyPrefix = "cep:"

	BackendMemory = "memory"
	BackendRedis  = "redis"

	DefaultTTL        = 15 * time.Minute
	DefaultMaxEntries = 1000
)

var ErrUnknownBackend = errors.New("cache: unknown backend")

// Cache is the cache-aside store used by the lookup service.
//
// Implementations must be safe for concurrent use. A miss is (zero, false, nil).
// A ttl <= 0 on Set means the backend's default TTL.
type Cache interface {
	Get(ctx context.Context, key string) (cep.Address, bool, error)
	Set(ctx context.Context, key string, value cep.Address, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Key returns the cache key for a canonical CEP.
func Key(code string) string {
	return KeyPrefix + code
}

type Config struct {
	Enabled       bool
	Backend       string
	DefaultTTL    time.Duration
	MaxEntries    int
	RedisURL      string
	RedisPassword string
}

// New builds the backend named by cfg. A disabled cache is a Noop.
func New(cfg Config) (Cache, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(cfg.DefaultTTL, cfg.MaxEntries), nil
	case BackendRedis:
		c, err := NewRedisFromURL(cfg.RedisURL, cfg.RedisPassword, cfg.DefaultTTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
