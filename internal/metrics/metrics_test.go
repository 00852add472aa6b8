package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/nextup/internal/shared"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	t.Run("counts cache lookups by outcome", func(t *testing.T) {
		c := New()
		c.CacheLookup(LookupHit)
		c.CacheLookup(LookupHit)
		c.CacheLookup(LookupMiss)

		if got := testutil.ToFloat64(c.cacheLookups.WithLabelValues(LookupHit)); got != 2 {
			t.Errorf("expected 2 hits, got %v", got)
		}
		if got := testutil.ToFloat64(c.cacheLookups.WithLabelValues(LookupMiss)); got != 1 {
			t.Errorf("expected 1 miss, got %v", got)
		}
	})

	t.Run("counts evictions", func(t *testing.T) {
		c := New()
		c.CacheEvicted(200)
		c.CacheEvicted(0)

		if got := testutil.ToFloat64(c.cacheEvictions); got != 200 {
			t.Errorf("expected 200 evictions, got %v", got)
		}
	})

	t.Run("labels provider outcomes", func(t *testing.T) {
		tc := []struct {
			err  error
			want string
		}{
			{err: nil, want: "ok"},
			{err: fmt.Errorf("%w: gone", shared.ErrNotFound), want: "not_found"},
			{err: fmt.Errorf("%w: slow", shared.ErrTimeout), want: "timeout"},
			{err: fmt.Errorf("%w: down", shared.ErrProviderUnavailable), want: "unavailable"},
			{err: fmt.Errorf("boom"), want: "error"},
		}

		for _, tt := range tc {
			t.Run(tt.want, func(t *testing.T) {
				if got := outcome(tt.err); got != tt.want {
					t.Errorf("outcome(%v) = %s, want %s", tt.err, got, tt.want)
				}
			})
		}
	})

	t.Run("serves exposition format", func(t *testing.T) {
		c := New()
		c.ObserveProvider("search", 150*time.Millisecond, nil)
		c.ObserveRequest("/search", http.StatusOK)

		server := httptest.NewServer(c.Handler())
		defer server.Close()

		resp, err := http.Get(server.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		for _, name := range []string{"nextup_provider_call_duration_seconds", "nextup_http_requests_total"} {
			if !strings.Contains(string(body), name) {
				t.Errorf("expected %s in exposition output", name)
			}
		}
	})

	t.Run("nil collector is a no-op", func(t *testing.T) {
		var c *Collector
		c.CacheLookup(LookupHit)
		c.CacheFallback("get")
		c.CacheEvicted(3)
		c.ObserveProvider("stream", time.Second, nil)
		c.ObserveRequest("/", http.StatusOK)

		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 from nil collector handler, got %d", rec.Code)
		}
	})
}
