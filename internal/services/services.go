package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
)

// Searcher returns raw, unscored catalog hits for a free-text query.
type Searcher interface {
	// SearchRaw returns at most window hits in provider order.
	SearchRaw(ctx context.Context, query string, window int) ([]models.RawCandidate, error)

	// Name returns the backend name (e.g., "yt-dlp", "YouTube Music")
	Name() string
}

// StreamSource resolves a catalog id into a playable stream.
type StreamSource interface {
	// ResolveStream returns [shared.ErrNotFound] when the catalog has nothing playable for id.
	ResolveStream(ctx context.Context, id string) (*models.StreamInfo, error)

	Name() string
}

// Provider is a full content provider: search plus stream resolution.
type Provider interface {
	Searcher
	StreamSource
}

// composite pairs a search backend with a (possibly different) stream backend.
type composite struct {
	search Searcher
	stream StreamSource
}

// Compose builds a [Provider] that searches with s and resolves streams with st.
func Compose(s Searcher, st StreamSource) Provider {
	return &composite{search: s, stream: st}
}

func (c *composite) Name() string {
	if c.search.Name() == c.stream.Name() {
		return c.search.Name()
	}
	return c.search.Name() + "+" + c.stream.Name()
}

func (c *composite) SearchRaw(ctx context.Context, query string, window int) ([]models.RawCandidate, error) {
	return c.search.SearchRaw(ctx, query, window)
}

func (c *composite) ResolveStream(ctx context.Context, id string) (*models.StreamInfo, error) {
	return c.stream.ResolveStream(ctx, id)
}

// NewProvider builds the provider selected by cfg. Search and stream backends are chosen independently.
func NewProvider(cfg shared.ProviderConfig, httpClient *http.Client) (Provider, error) {
	var ytdlp *YtdlpService
	getYtdlp := func() *YtdlpService {
		if ytdlp == nil {
			ytdlp = NewYtdlpService(YtdlpOpts{})
		}
		return ytdlp
	}

	var proxy *ProxyService
	getProxy := func() *ProxyService {
		if proxy == nil {
			proxy = NewProxyService(cfg.ProxyURL, httpClient)
		}
		return proxy
	}

	var search Searcher
	switch cfg.SearchBackend {
	case "", "ytdlp":
		search = getYtdlp()
	case "ytmusic":
		search = NewYTMusicService()
	case "ytsearch":
		search = NewYTSearchService(httpClient)
	case "proxy":
		search = getProxy()
	default:
		return nil, fmt.Errorf("%w: unknown search backend %q", shared.ErrInvalidConfig, cfg.SearchBackend)
	}

	var stream StreamSource
	switch cfg.StreamBackend {
	case "", "ytdlp":
		stream = getYtdlp()
	case "proxy":
		stream = getProxy()
	default:
		return nil, fmt.Errorf("%w: unknown stream backend %q", shared.ErrInvalidConfig, cfg.StreamBackend)
	}

	return Compose(search, stream), nil
}
