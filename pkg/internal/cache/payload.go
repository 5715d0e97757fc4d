package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by PayloadCache.Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// PayloadCache stores opaque byte payloads with a per-entry TTL.
type PayloadCache struct {
	manager *cache.Cache[any]
}

func NewPayloadCache(s store.StoreInterface) *PayloadCache {
	return &PayloadCache{manager: cache.New[any](s)}
}

func (v *PayloadCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := v.manager.Get(ctx, key)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrMiss
		}
		return nil, err
	}

	switch raw := val.(type) {
	case []byte:
		return raw, nil
	case string:
		return []byte(raw), nil
	case nil:
		return nil, ErrMiss
	default:
		return nil, fmt.Errorf("unexpected cached value of type %T", val)
	}
}

func (v *PayloadCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return v.manager.Set(ctx, key, value, store.WithExpiration(ttl))
}

func (v *PayloadCache) Delete(ctx context.Context, key string) error {
	if err := v.manager.Delete(ctx, key); err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

// IsNotFound reports whether err is a cache miss from any of the gocache stores.
func IsNotFound(err error) bool {
	var notFound *store.NotFound
	return errors.As(err, &notFound) || errors.Is(err, redis.Nil) || errors.Is(err, ErrMiss)
}
