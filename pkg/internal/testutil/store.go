package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eko/gocache/lib/v4/store"
	"github.com/samber/lo"
)

type memoryItem struct {
	value   any
	expires time.Time
	tags    []string
}

// MemoryStore is an in-process gocache store used by tests instead of redis.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem

	Sets int
}

var _ store.StoreInterface = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

func (v *MemoryStore) Get(ctx context.Context, key any) (any, error) {
	val, _, err := v.GetWithTTL(ctx, key)
	return val, err
}

func (v *MemoryStore) GetWithTTL(_ context.Context, key any) (any, time.Duration, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	k := fmt.Sprint(key)
	item, ok := v.items[k]
	if !ok {
		return nil, 0, store.NotFoundWithCause(errors.New("missing key"))
	}
	if !item.expires.IsZero() && time.Now().After(item.expires) {
		delete(v.items, k)
		return nil, 0, store.NotFoundWithCause(errors.New("expired key"))
	}

	var ttl time.Duration
	if !item.expires.IsZero() {
		ttl = time.Until(item.expires)
	}
	return item.value, ttl, nil
}

func (v *MemoryStore) Set(_ context.Context, key any, value any, options ...store.Option) error {
	opts := store.ApplyOptions(options...)

	v.mu.Lock()
	defer v.mu.Unlock()

	item := memoryItem{value: value, tags: opts.Tags}
	if opts.Expiration > 0 {
		item.expires = time.Now().Add(opts.Expiration)
	}
	v.items[fmt.Sprint(key)] = item
	v.Sets++
	return nil
}

func (v *MemoryStore) Delete(_ context.Context, key any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.items, fmt.Sprint(key))
	return nil
}

func (v *MemoryStore) Invalidate(_ context.Context, options ...store.InvalidateOption) error {
	opts := store.ApplyInvalidateOptions(options...)

	v.mu.Lock()
	defer v.mu.Unlock()

	for key, item := range v.items {
		if len(lo.Intersect(item.tags, opts.Tags)) > 0 {
			delete(v.items, key)
		}
	}
	return nil
}

func (v *MemoryStore) Clear(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.items = make(map[string]memoryItem)
	return nil
}

func (v *MemoryStore) GetType() string {
	return "memory"
}

// TTL returns the remaining lifetime of key, or zero when it is absent or never expires.
func (v *MemoryStore) TTL(key string) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()

	item, ok := v.items[key]
	if !ok || item.expires.IsZero() {
		return 0
	}
	return time.Until(item.expires)
}
