package tasks

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/models"
	"golang.org/x/time/rate"
)

// PrefetchOpts configures a [Prefetcher].
type PrefetchOpts struct {
	NumWorkers int     // Concurrent workers (default: 3, max: 10)
	RateLimit  float64 // Resolutions per second (default: 5)
	Logger     *log.Logger
}

// PrefetchResult summarizes one [Prefetcher.Warm] run.
type PrefetchResult struct {
	Total    int
	Resolved int
	Cached   int
	Failed   int
	Errors   map[string]error // keyed by track id
}

// Prefetcher warms the resolution cache for upcoming tracks.
type Prefetcher struct {
	streams *StreamResolver
	opts    PrefetchOpts
}

func NewPrefetcher(streams *StreamResolver, opts PrefetchOpts) *Prefetcher {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	return &Prefetcher{streams: streams, opts: opts}
}

// Warm resolves every id through the stream resolver with a bounded worker pool.
//
// Failures are collected, not returned: prefetching is best effort. Repeated ids are resolved once.
func (p *Prefetcher) Warm(ctx context.Context, prog chan<- ProgressUpdate, ids []string) *PrefetchResult {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	result := &PrefetchResult{Total: len(unique), Errors: map[string]error{}}
	if len(unique) == 0 {
		return result
	}

	limiter := rate.NewLimiter(rate.Limit(p.opts.RateLimit), 1)

	type outcome struct {
		id  string
		res *models.StreamResult
		err error
	}

	jobs := make(chan string, len(unique))
	results := make(chan outcome, len(unique))

	var wg sync.WaitGroup
	for i := 0; i < min(p.opts.NumWorkers, len(unique)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					results <- outcome{id: id, err: err}
					continue
				}
				res, err := p.streams.Resolve(ctx, id)
				results <- outcome{id: id, res: res, err: err}
			}
		}()
	}

	sendProgress(prog, prefetchStartUpdate(len(unique)))
	for _, id := range unique {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for o := range results {
		completed++
		if o.err != nil {
			result.Failed++
			result.Errors[o.id] = o.err
			sendProgress(prog, prefetchFailedUpdate(completed, len(unique), o.id, o.err))
			if p.opts.Logger != nil {
				p.opts.Logger.Debug("prefetch failed", "id", o.id, "error", o.err)
			}
			continue
		}

		result.Resolved++
		if o.res.Cached {
			result.Cached++
		}
		sendProgress(prog, prefetchResolvedUpdate(completed, len(unique), o.res))
	}
	return result
}

// WarmQueue prefetches the first n tracks of a queue in the background and returns immediately.
//
// The work is detached from ctx so it outlives the request that produced the queue.
func (p *Prefetcher) WarmQueue(ctx context.Context, queue []models.Candidate, n int) {
	if n <= 0 || len(queue) == 0 {
		return
	}

	ids := make([]string, 0, n)
	for _, c := range queue[:min(n, len(queue))] {
		ids = append(ids, c.ID)
	}

	go func() {
		res := p.Warm(context.WithoutCancel(ctx), nil, ids)
		if p.opts.Logger != nil {
			p.opts.Logger.Debug("queue prefetched", "total", res.Total, "resolved", res.Resolved, "failed", res.Failed)
		}
	}()
}
