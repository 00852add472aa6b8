package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/nextup/internal/metrics"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	th "github.com/desertthunder/nextup/internal/testing"
	"github.com/raitonoberu/ytmusic"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name   string
		search string
		stream string
		want   string
	}{
		{"defaults to yt-dlp", "", "", "yt-dlp"},
		{"ytmusic search with yt-dlp streams", "ytmusic", "ytdlp", "YouTube Music+yt-dlp"},
		{"web search with proxy streams", "ytsearch", "proxy", "YouTube+proxy"},
		{"proxy for both", "proxy", "proxy", "proxy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(shared.ProviderConfig{SearchBackend: tt.search, StreamBackend: tt.stream}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, p.Name())
			}
		})
	}

	t.Run("unknown backends", func(t *testing.T) {
		if _, err := NewProvider(shared.ProviderConfig{SearchBackend: "napster"}, nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if _, err := NewProvider(shared.ProviderConfig{StreamBackend: "ytmusic"}, nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("proxy backends share one client", func(t *testing.T) {
		p, _ := NewProvider(shared.ProviderConfig{SearchBackend: "proxy", StreamBackend: "proxy", ProxyURL: "http://p"}, nil)
		c := p.(*composite)
		if c.search.(*ProxyService) != c.stream.(*ProxyService) {
			t.Error("expected a single proxy service for both halves")
		}
	})
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("passes calls through", func(t *testing.T) {
		mock := &th.MockProvider{SearchFn: th.Results(models.RawCandidate{ID: "a", Title: "A"})}
		g := NewGuard(mock, GuardOpts{Timeout: time.Second, Logger: logger, Metrics: metrics.New()})

		hits, err := g.SearchRaw(ctx, "q", 10)
		if err != nil || len(hits) != 1 {
			t.Fatalf("expected one hit, got %v err=%v", hits, err)
		}
		info, err := g.ResolveStream(ctx, "a")
		if err != nil || info.StreamURL == "" {
			t.Fatalf("expected stream, got %+v err=%v", info, err)
		}
		if g.Name() != "mock" {
			t.Errorf("expected wrapped name, got %s", g.Name())
		}
	})

	t.Run("slow provider times out", func(t *testing.T) {
		mock := &th.MockProvider{StreamFn: func(ctx context.Context, id string) (*models.StreamInfo, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		g := NewGuard(mock, GuardOpts{Timeout: 20 * time.Millisecond, Logger: logger})

		_, err := g.ResolveStream(ctx, "slow")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("provider errors are preserved", func(t *testing.T) {
		mock := &th.MockProvider{StreamFn: func(context.Context, string) (*models.StreamInfo, error) {
			return nil, shared.ErrNotFound
		}}
		g := NewGuard(mock, GuardOpts{Timeout: time.Second})

		if _, err := g.ResolveStream(ctx, "gone"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rate limit bounds throughput", func(t *testing.T) {
		mock := &th.MockProvider{}
		g := NewGuard(mock, GuardOpts{RateLimit: 1, Burst: 1})

		if _, err := g.SearchRaw(ctx, "first", 5); err != nil {
			t.Fatalf("expected burst call to pass, got %v", err)
		}

		tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		if _, err := g.SearchRaw(tctx, "second", 5); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected limiter to refuse within deadline, got %v", err)
		}
		if mock.Searches() != 1 {
			t.Errorf("expected provider to be called once, got %d", mock.Searches())
		}
	})
}

func TestYTMusicService(t *testing.T) {
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if svc := NewYTMusicService(); svc.Name() != "YouTube Music" {
			t.Errorf("unexpected name %s", svc.Name())
		}
	})

	t.Run("errors are provider errors", func(t *testing.T) {
		svc := &YTMusicService{search: func(string) (*ytmusic.SearchResult, error) {
			return nil, errors.New("innertube said no")
		}}
		if _, err := svc.SearchRaw(ctx, "q", 5); !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("nil result is empty", func(t *testing.T) {
		svc := &YTMusicService{search: func(string) (*ytmusic.SearchResult, error) { return nil, nil }}
		hits, err := svc.SearchRaw(ctx, "q", 5)
		if err != nil || len(hits) != 0 {
			t.Errorf("expected empty result, got %v err=%v", hits, err)
		}
	})

	t.Run("respects context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		svc := &YTMusicService{search: func(string) (*ytmusic.SearchResult, error) {
			<-release
			return nil, nil
		}}

		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		if _, err := svc.SearchRaw(tctx, "q", 5); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestWebHit(t *testing.T) {
	hit, ok := webHit("abc", "Song", "Channel", "3:20")
	if !ok || hit.DurationSeconds != 200 || hit.ThumbnailURL != ThumbnailURL("abc") {
		t.Errorf("unexpected hit %+v ok=%v", hit, ok)
	}
	if _, ok := webHit("", "Song", "Channel", "3:20"); ok {
		t.Error("expected entry without id to be rejected")
	}
}
