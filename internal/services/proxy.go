// HTTP catalog proxy [Provider] implementation
//
// Talks to a catalog proxy (for instance a ytmusicapi or yt-dlp wrapper) that exposes
// GET /api/search and GET /api/stream/{id} as JSON.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
)

const defaultProxyBaseURL string = "http://localhost:8080"

type proxyArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type proxyThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// proxyTrack is a search hit as returned by the proxy.
type proxyTrack struct {
	VideoID     string           `json:"videoId"`
	Title       string           `json:"title"`
	Artists     []proxyArtist    `json:"artists"`
	Channel     string           `json:"channel"`
	Duration    string           `json:"duration"`
	DurationSec int              `json:"duration_seconds"`
	Thumbnails  []proxyThumbnail `json:"thumbnails"`
}

type proxyStream struct {
	VideoID   string `json:"video_id"`
	StreamURL string `json:"stream_url"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
}

// ProxyService implements [Provider] against an HTTP catalog proxy.
type ProxyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewProxyService creates a new proxy-backed provider.
func NewProxyService(baseURL string, httpClient *http.Client) *ProxyService {
	if baseURL == "" {
		baseURL = defaultProxyBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &ProxyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (p *ProxyService) Name() string {
	return "proxy"
}

func (p *ProxyService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: proxy request: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: proxy request: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := shared.ErrProviderUnavailable
		if resp.StatusCode == http.StatusNotFound {
			kind = shared.ErrNotFound
		}

		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: proxy API error (status %d): %s", kind, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: proxy API error: status %d", kind, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrProviderUnavailable, err)
		}
	}
	return nil
}

// SearchRaw calls GET /api/search?q={query}&limit={window}.
func (p *ProxyService) SearchRaw(ctx context.Context, query string, window int) ([]models.RawCandidate, error) {
	if window <= 0 {
		return []models.RawCandidate{}, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(window))

	var tracks []proxyTrack
	if err := p.doRequest(ctx, "/api/search?"+q.Encode(), &tracks); err != nil {
		return nil, err
	}

	hits := make([]models.RawCandidate, 0, min(window, len(tracks)))
	for _, t := range tracks {
		if len(hits) == window {
			break
		}
		if t.VideoID == "" {
			continue
		}
		hits = append(hits, t.raw())
	}
	return hits, nil
}

func (t proxyTrack) raw() models.RawCandidate {
	hit := models.RawCandidate{
		ID:              t.VideoID,
		Title:           t.Title,
		Channel:         t.Channel,
		DurationSeconds: t.DurationSec,
		ThumbnailURL:    ThumbnailURL(t.VideoID),
	}
	if hit.Channel == "" && len(t.Artists) > 0 {
		hit.Channel = t.Artists[0].Name
	}
	if hit.DurationSeconds == 0 {
		hit.DurationSeconds = parseClock(t.Duration)
	}
	if n := len(t.Thumbnails); n > 0 && t.Thumbnails[n-1].URL != "" {
		hit.ThumbnailURL = t.Thumbnails[n-1].URL
	}
	return hit
}

// ResolveStream calls GET /api/stream/{id}.
func (p *ProxyService) ResolveStream(ctx context.Context, id string) (*models.StreamInfo, error) {
	var s proxyStream
	if err := p.doRequest(ctx, "/api/stream/"+url.PathEscape(id), &s); err != nil {
		return nil, err
	}
	if s.StreamURL == "" {
		return nil, fmt.Errorf("%w: proxy returned no stream for %s", shared.ErrNotFound, id)
	}

	info := &models.StreamInfo{
		ID:              id,
		StreamURL:       s.StreamURL,
		Title:           s.Title,
		Artist:          s.Artist,
		DurationSeconds: s.Duration,
		ThumbnailURL:    s.Thumbnail,
	}
	if info.ThumbnailURL == "" {
		info.ThumbnailURL = ThumbnailURL(id)
	}
	return info, nil
}
