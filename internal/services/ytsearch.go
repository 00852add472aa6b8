package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/ppalone/ytsearch"
)

// YTSearchService searches YouTube's web results page. It has no stream resolution.
type YTSearchService struct {
	client *ytsearch.Client
}

// NewYTSearchService creates a YouTube web search backend. A nil httpClient uses the library default.
func NewYTSearchService(httpClient *http.Client) *YTSearchService {
	return &YTSearchService{client: ytsearch.NewClient(httpClient)}
}

func (y *YTSearchService) Name() string {
	return "YouTube"
}

// SearchRaw returns the first page of results, truncated to window.
func (y *YTSearchService) SearchRaw(ctx context.Context, query string, window int) ([]models.RawCandidate, error) {
	if window <= 0 {
		return []models.RawCandidate{}, nil
	}

	res, err := y.client.Search(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: youtube search: %v", shared.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: youtube search: %v", shared.ErrProviderUnavailable, err)
	}

	hits := []models.RawCandidate{}
	for _, r := range res.Results {
		if len(hits) == window {
			break
		}
		if hit, ok := webHit(r.VideoID, r.Title, r.Channel, r.Duration); ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// webHit builds a raw candidate from a web result. Entries without an id or title are rejected.
func webHit(id, title, channel, duration string) (models.RawCandidate, bool) {
	if id == "" || title == "" {
		return models.RawCandidate{}, false
	}
	return models.RawCandidate{
		ID:              id,
		Title:           title,
		Channel:         channel,
		DurationSeconds: parseClock(duration),
		ThumbnailURL:    ThumbnailURL(id),
	}, true
}
