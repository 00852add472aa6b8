package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/metrics"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	"golang.org/x/time/rate"
)

// GuardOpts configures a [Guard].
type GuardOpts struct {
	Timeout   time.Duration // per call; zero means no extra bound
	RateLimit float64       // calls per second; zero disables limiting
	Burst     int
	Logger    *log.Logger
	Metrics   *metrics.Collector
}

// Guard wraps a [Provider] with a per-call timeout, a shared rate limit and call metrics.
type Guard struct {
	next    Provider
	timeout time.Duration
	limiter *rate.Limiter
	logger  *log.Logger
	metrics *metrics.Collector
}

// NewGuard wraps p.
func NewGuard(p Provider, opts GuardOpts) *Guard {
	g := &Guard{next: p, timeout: opts.Timeout, logger: opts.Logger, metrics: opts.Metrics}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return g
}

func (g *Guard) Name() string {
	return g.next.Name()
}

func (g *Guard) SearchRaw(ctx context.Context, query string, window int) ([]models.RawCandidate, error) {
	var hits []models.RawCandidate
	err := g.call(ctx, "search", func(ctx context.Context) error {
		var err error
		hits, err = g.next.SearchRaw(ctx, query, window)
		return err
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (g *Guard) ResolveStream(ctx context.Context, id string) (*models.StreamInfo, error) {
	var info *models.StreamInfo
	err := g.call(ctx, "stream", func(ctx context.Context) error {
		var err error
		info, err = g.next.ResolveStream(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (g *Guard) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			err = fmt.Errorf("%w: rate limited %s: %v", shared.ErrTimeout, op, err)
			g.metrics.ObserveProvider(op, 0, err)
			return err
		}
	}

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil && !errors.Is(err, shared.ErrTimeout) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s exceeded %v: %v", shared.ErrTimeout, op, g.timeout, err)
	}
	g.metrics.ObserveProvider(op, elapsed, err)

	if err != nil && g.logger != nil {
		g.logger.Warn("provider call failed", "provider", g.next.Name(), "op", op, "elapsed", elapsed, "error", err)
	} else if g.logger != nil {
		g.logger.Debug("provider call", "provider", g.next.Name(), "op", op, "elapsed", elapsed)
	}
	return err
}
