// Package cache is the short-lived key/value store behind the attempt ledger
// and the passcode store. Redis and in-memory backends share one interface.
package cache

import (
	"context"
	"time"
)

// Cache stores string values with a time-to-live.
type Cache interface {
	// Get returns the value and true, or "" and false when the key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites key. A zero ttl means the entry does not expire.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key and returns the number of entries removed.
	Delete(ctx context.Context, key string) (int64, error)
}

type prefixed struct {
	c         Cache
	namespace string
}

// Prefixed returns a Cache that stores every key under "namespace:key".
func Prefixed(c Cache, namespace string) Cache {
	return &prefixed{c: c, namespace: namespace}
}

func (p *prefixed) key(k string) string {
	return p.namespace + ":" + k
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.c.Get(ctx, p.key(key))
}

func (p *prefixed) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return p.c.Set(ctx, p.key(key), value, ttl)
}

func (p *prefixed) Delete(ctx context.Context, key string) (int64, error) {
	return p.c.Delete(ctx, p.key(key))
}
