package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/cache"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/services"
	"github.com/desertthunder/nextup/internal/shared"
)

// StreamResolver resolves catalog ids to playable streams through the resolution cache.
type StreamResolver struct {
	provider services.StreamSource
	cache    *cache.Resolver
	prefix   string
	logger   *log.Logger
}

// NewStreamResolver creates a stream resolver keyed by prefix+id.
func NewStreamResolver(p services.StreamSource, r *cache.Resolver, prefix string, logger *log.Logger) *StreamResolver {
	return &StreamResolver{provider: p, cache: r, prefix: prefix, logger: logger}
}

// Key returns the cache key for id.
func (s *StreamResolver) Key(id string) string {
	return s.prefix + id
}

// Resolve returns the stream for id, tagged with whether it came from cache and how long the call took.
//
// A provider that has nothing for id yields [shared.ErrNotFound]; other failures keep their kind.
func (s *StreamResolver) Resolve(ctx context.Context, id string) (*models.StreamResult, error) {
	start := time.Now()

	id, err := services.NormalizeVideoID(id)
	if err != nil {
		return nil, err
	}
	if s.provider == nil || s.cache == nil {
		return nil, fmt.Errorf("%w: stream resolver not initialized", shared.ErrServiceUnavailable)
	}

	res, err := s.cache.Resolve(ctx, s.Key(id), func(ctx context.Context) ([]byte, error) {
		info, err := s.provider.ResolveStream(ctx, id)
		if err != nil {
			return nil, err
		}
		if info == nil || info.StreamURL == "" {
			return nil, fmt.Errorf("%w: no stream for %s", shared.ErrNotFound, id)
		}
		if info.ID == "" {
			info.ID = id
		}
		return json.Marshal(info)
	})
	if err != nil {
		return nil, err
	}

	var info models.StreamInfo
	if err := json.Unmarshal(res.Value, &info); err != nil {
		// A corrupt entry is dropped so the next call refetches.
		if ierr := s.cache.Invalidate(ctx, s.Key(id)); ierr != nil && s.logger != nil {
			s.logger.Warn("failed to drop corrupt cache entry", "id", id, "error", ierr)
		}
		return nil, fmt.Errorf("%w: corrupt cached stream for %s: %v", shared.ErrProviderUnavailable, id, err)
	}

	result := &models.StreamResult{
		StreamInfo:       info,
		Cached:           res.Cached,
		ResolutionTimeMs: time.Since(start).Milliseconds(),
	}

	if s.logger != nil {
		s.logger.Debug("stream resolved", "id", id, "cached", result.Cached, "ms", result.ResolutionTimeMs)
	}
	return result, nil
}

// Invalidate drops the cached stream for id.
func (s *StreamResolver) Invalidate(ctx context.Context, id string) error {
	id, err := services.NormalizeVideoID(id)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return fmt.Errorf("%w: stream resolver not initialized", shared.ErrServiceUnavailable)
	}
	return s.cache.Invalidate(ctx, s.Key(id))
}
