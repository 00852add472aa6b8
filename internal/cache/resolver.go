package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/metrics"
	"github.com/desertthunder/nextup/internal/shared"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL          = 600 * time.Second
	defaultFetchTimeout = 30 * time.Second
)

// FetchFunc produces the value for a key on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Result is the outcome of [Resolver.Resolve].
type Result struct {
	Value  []byte
	Cached bool // served from the store without fetching
}

// ResolverOpts configures a [Resolver].
type ResolverOpts struct {
	Store        Store
	TTL          time.Duration // default: 600s
	FetchTimeout time.Duration // upper bound on a single fetch (default: 30s)
	Logger       *log.Logger
	Metrics      *metrics.Collector
}

// Resolver is a read-through cache with per-key stampede protection.
//
// Concurrent misses on the same key share one fetch and all observe its outcome. Different keys never
// wait on each other, and no lock is held while fetching.
type Resolver struct {
	store        Store
	ttl          time.Duration
	fetchTimeout time.Duration
	group        singleflight.Group
	logger       *log.Logger
	metrics      *metrics.Collector
}

type flight struct {
	value  []byte
	cached bool
}

// NewResolver creates a [Resolver]. A nil Store gets a default [MemoryStore].
func NewResolver(opts ResolverOpts) *Resolver {
	if opts.Store == nil {
		opts.Store = NewMemoryStore(MemoryOpts{})
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Resolver{
		store:        opts.Store,
		ttl:          opts.TTL,
		fetchTimeout: opts.FetchTimeout,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

// Resolve returns the live value for key, or runs fetch once for all concurrent callers and stores a
// successful result for the configured TTL. Failures are returned to every waiter and never stored.
//
// The shared fetch runs detached from any single caller's context, bounded by the fetch timeout. A caller
// whose ctx ends stops waiting with [shared.ErrTimeout] (deadline) or ctx.Err() (cancel) while the fetch
// carries on for the others.
func (r *Resolver) Resolve(ctx context.Context, key string, fetch FetchFunc) (Result, error) {
	if v, ok := r.lookup(ctx, key); ok {
		r.metrics.CacheLookup(metrics.LookupHit)
		return Result{Value: v, Cached: true}, nil
	}
	r.metrics.CacheLookup(metrics.LookupMiss)

	detached := context.WithoutCancel(ctx)
	// Only the caller whose function runs leads the flight; everyone else joined it.
	leader := false
	ch := r.group.DoChan(key, func() (any, error) {
		leader = true
		// A flight for this key may have finished between our lookup and joining.
		if v, ok := r.lookup(detached, key); ok {
			return flight{value: v, cached: true}, nil
		}

		v, err := r.fetch(detached, key, fetch)
		if err != nil {
			return nil, err
		}

		if err := r.store.Set(detached, key, v, r.ttl); err != nil {
			r.logger.Warn("failed to store resolved value", "key", key, "error", err)
		}
		return flight{value: v}, nil
	})

	select {
	case res := <-ch:
		if !leader {
			r.metrics.CacheLookup(metrics.LookupShared)
		}
		if res.Err != nil {
			return Result{}, res.Err
		}
		f := res.Val.(flight)
		return Result{Value: f.value, Cached: f.cached}, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: waiting for %s", shared.ErrTimeout, key)
		}
		return Result{}, ctx.Err()
	}
}

// Invalidate drops key from the store. An in-flight fetch for key is unaffected.
func (r *Resolver) Invalidate(ctx context.Context, key string) error {
	return r.store.Delete(ctx, key)
}

func (r *Resolver) lookup(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache lookup failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	return v, ok
}

// fetch runs fn under the fetch timeout and converts panics and deadline overruns into errors.
func (r *Resolver) fetch(ctx context.Context, key string, fn FetchFunc) (v []byte, err error) {
	fctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("fetch panicked", "key", key, "panic", p)
			v, err = nil, fmt.Errorf("fetch for %s panicked: %v", key, p)
		}
	}()

	start := time.Now()
	v, err = fn(fctx)
	if err != nil {
		if errors.Is(fctx.Err(), context.DeadlineExceeded) && !errors.Is(err, shared.ErrTimeout) {
			err = fmt.Errorf("%w: fetch for %s after %s: %v", shared.ErrTimeout, key, time.Since(start).Round(time.Millisecond), err)
		}
		r.logger.Debug("fetch failed", "key", key, "error", err)
		return nil, err
	}
	r.logger.Debug("fetched", "key", key, "elapsed", time.Since(start))
	return v, nil
}
