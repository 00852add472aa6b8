package cache

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/metrics"
)

// Layered prefers a shared store and degrades to a local one whenever the shared store errors.
//
// Backend failures are logged and counted, never returned: a Layered store only fails if the local store does.
type Layered struct {
	primary Store // may be nil
	local   Store
	logger  *log.Logger
	metrics *metrics.Collector
}

// NewLayered builds a [Layered] store. A nil primary means local-only.
func NewLayered(primary, local Store, logger *log.Logger, m *metrics.Collector) *Layered {
	return &Layered{primary: primary, local: local, logger: logger, metrics: m}
}

func (l *Layered) Name() string {
	if l.primary == nil {
		return l.local.Name()
	}
	return l.primary.Name() + "+" + l.local.Name()
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if l.primary != nil {
		v, ok, err := l.primary.Get(ctx, key)
		if err == nil {
			return v, ok, nil
		}
		l.degraded("get", key, err)
	}
	return l.local.Get(ctx, key)
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if l.primary != nil {
		err := l.primary.Set(ctx, key, value, ttl)
		if err == nil {
			return nil
		}
		l.degraded("set", key, err)
	}
	return l.local.Set(ctx, key, value, ttl)
}

// Delete removes key from both layers, since a past outage may have left a copy in the local one.
func (l *Layered) Delete(ctx context.Context, key string) error {
	if l.primary != nil {
		if err := l.primary.Delete(ctx, key); err != nil {
			l.degraded("delete", key, err)
		}
	}
	return l.local.Delete(ctx, key)
}

func (l *Layered) degraded(op, key string, err error) {
	l.metrics.CacheFallback(op)
	if l.logger != nil {
		l.logger.Warn("shared cache unavailable, using in-process fallback", "op", op, "key", key, "error", err)
	}
}

// Close closes whichever layers hold connections.
func (l *Layered) Close() error {
	var errs []error
	for _, s := range []Store{l.primary, l.local} {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
