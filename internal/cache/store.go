// package cache holds resolved streams for a bounded time and collapses concurrent lookups
package cache

import (
	"context"
	"time"
)

// Store is a key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil). A non-nil error means the backend itself failed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Name() string
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*Layered)(nil)
)
