package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/raitonoberu/ytmusic"
)

// YTMusicService searches the YouTube Music song catalog. It has no stream resolution.
type YTMusicService struct {
	search func(query string) (*ytmusic.SearchResult, error)
}

// NewYTMusicService creates a YouTube Music search backend.
func NewYTMusicService() *YTMusicService {
	return &YTMusicService{search: func(q string) (*ytmusic.SearchResult, error) {
		return ytmusic.TrackSearch(q).Next()
	}}
}

func (y *YTMusicService) Name() string {
	return "YouTube Music"
}

// SearchRaw runs a track search. The client has no context support so the call is raced against ctx.
func (y *YTMusicService) SearchRaw(ctx context.Context, query string, window int) ([]models.RawCandidate, error) {
	if window <= 0 {
		return []models.RawCandidate{}, nil
	}

	type reply struct {
		res *ytmusic.SearchResult
		err error
	}
	done := make(chan reply, 1)
	go func() {
		res, err := y.search(query)
		done <- reply{res, err}
	}()

	var r reply
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: youtube music search: %v", shared.ErrTimeout, ctx.Err())
	case r = <-done:
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: youtube music search: %v", shared.ErrProviderUnavailable, r.err)
	}
	if r.res == nil {
		return []models.RawCandidate{}, nil
	}

	hits := make([]models.RawCandidate, 0, min(window, len(r.res.Tracks)))
	for _, t := range r.res.Tracks {
		if len(hits) == window {
			break
		}
		if t.VideoID == "" {
			continue
		}

		hit := models.RawCandidate{
			ID:              t.VideoID,
			Title:           t.Title,
			DurationSeconds: t.Duration,
			ThumbnailURL:    ThumbnailURL(t.VideoID),
		}
		if len(t.Artists) > 0 {
			hit.Channel = t.Artists[0].Name
		}
		if n := len(t.Thumbnails); n > 0 {
			hit.ThumbnailURL = t.Thumbnails[n-1].URL
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
