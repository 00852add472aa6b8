// Package cache implements the stream resolution cache.
//
// # Stores
//
// [Store] is the backend contract. [MemoryStore] is a bounded in-process map that evicts the oldest
// entries in batches once full; [RedisStore] shares entries across processes using native expiry; [Layered]
// puts Redis in front of memory and silently degrades to memory whenever Redis errors.
//
// # Resolver
//
// [Resolver] is a read-through cache over a [Store]. Misses on the same key are collapsed with
// golang.org/x/sync/singleflight: one fetch runs, every concurrent caller waits on it and gets the same
// value or the same error. Only successes are stored, so a failed resolution is retried by the next caller.
//
// Nothing survives a restart unless Redis is configured.
package cache
