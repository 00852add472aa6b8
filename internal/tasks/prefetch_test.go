package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	th "github.com/desertthunder/nextup/internal/testing"
)

func TestPrefetcher(t *testing.T) {
	ctx := context.Background()

	failing := func(_ context.Context, id string) (*models.StreamInfo, error) {
		if id == "bad" {
			return nil, shared.ErrNotFound
		}
		return &models.StreamInfo{StreamURL: "https://audio/" + id}, nil
	}

	t.Run("warms every unique id", func(t *testing.T) {
		mock := &th.MockProvider{StreamFn: failing}
		streams := newTestStreams(mock, nil)
		p := NewPrefetcher(streams, PrefetchOpts{NumWorkers: 2, RateLimit: 1000})

		prog := make(chan ProgressUpdate, 10)
		res := p.Warm(ctx, prog, []string{"a", "b", "a", "bad", ""})
		close(prog)

		if res.Total != 3 || res.Resolved != 2 || res.Failed != 1 {
			t.Errorf("unexpected result %+v", res)
		}
		if !errors.Is(res.Errors["bad"], shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for bad, got %v", res.Errors["bad"])
		}
		if mock.Streams() != 3 {
			t.Errorf("expected 3 provider calls, got %d", mock.Streams())
		}

		var phases []Phase
		for u := range prog {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 4 || phases[0] != PrefetchStart {
			t.Errorf("unexpected progress phases %v", phases)
		}

		again := p.Warm(ctx, nil, []string{"a", "b"})
		if again.Cached != 2 || mock.Streams() != 3 {
			t.Errorf("expected second warm to hit cache, got %+v with %d calls", again, mock.Streams())
		}
	})

	t.Run("empty input", func(t *testing.T) {
		p := NewPrefetcher(newTestStreams(&th.MockProvider{}, nil), PrefetchOpts{})
		if res := p.Warm(ctx, nil, nil); res.Total != 0 {
			t.Errorf("expected empty result, got %+v", res)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		p := NewPrefetcher(nil, PrefetchOpts{NumWorkers: 50})
		if p.opts.NumWorkers != 10 || p.opts.RateLimit != 5 {
			t.Errorf("unexpected opts %+v", p.opts)
		}
	})

	t.Run("WarmQueue resolves the head of the queue", func(t *testing.T) {
		mock := &th.MockProvider{}
		streams := newTestStreams(mock, nil)
		p := NewPrefetcher(streams, PrefetchOpts{RateLimit: 1000})

		queue := []models.Candidate{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}}
		p.WarmQueue(ctx, queue, 2)

		deadline := time.Now().Add(2 * time.Second)
		for mock.Streams() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)

		if mock.Streams() != 2 {
			t.Errorf("expected 2 prefetches, got %d", mock.Streams())
		}
	})

	t.Run("Phase strings", func(t *testing.T) {
		for p, want := range map[Phase]string{PrefetchStart: "prefetch_start", PrefetchResolved: "prefetch_resolved", PrefetchFailed: "prefetch_failed", Phase(99): ""} {
			if p.String() != want {
				t.Errorf("expected %q, got %q", want, p.String())
			}
		}
	})
}
