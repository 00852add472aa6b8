// package metrics exposes Prometheus collectors for the cache, provider calls and HTTP surface
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/nextup/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nextup"

// Cache lookup outcomes.
const (
	LookupHit    = "hit"
	LookupMiss   = "miss"
	LookupShared = "shared" // joined an in-flight resolution
)

// Collector owns a private registry so components never touch the global default one.
//
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry       *prometheus.Registry
	cacheLookups   *prometheus.CounterVec
	cacheFallbacks *prometheus.CounterVec
	cacheEvictions prometheus.Counter
	providerCalls  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
}

// New builds a [Collector] with process and Go runtime collectors registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Stream cache lookups by outcome.",
		}, []string{"outcome"}),
		cacheFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "fallbacks_total",
			Help:      "Shared cache operations served by the in-process fallback.",
		}, []string{"op"}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries evicted from the in-process cache to stay under capacity.",
		}),
		providerCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Content provider call latency by operation and outcome.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"op", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.cacheLookups,
		c.cacheFallbacks,
		c.cacheEvictions,
		c.providerCalls,
		c.httpRequests,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) CacheLookup(outcome string) {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues(outcome).Inc()
}

func (c *Collector) CacheFallback(op string) {
	if c == nil {
		return
	}
	c.cacheFallbacks.WithLabelValues(op).Inc()
}

func (c *Collector) CacheEvicted(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.cacheEvictions.Add(float64(n))
}

// ObserveProvider records the latency of one provider call, labelled by how it ended.
func (c *Collector) ObserveProvider(op string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	c.providerCalls.WithLabelValues(op, outcome(err)).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveRequest(route string, code int) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrTimeout):
		return "timeout"
	case errors.Is(err, shared.ErrProviderUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
