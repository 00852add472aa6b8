package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/ranking"
	"github.com/desertthunder/nextup/internal/services"
	"github.com/desertthunder/nextup/internal/shared"
)

// SearchPipeline turns a free-text query into a ranked, de-duplicated result set.
type SearchPipeline struct {
	provider services.Searcher
	cfg      shared.SearchConfig
	window   int // dedup duration window in seconds
	logger   *log.Logger
}

// NewSearchPipeline creates a pipeline over p.
func NewSearchPipeline(p services.Searcher, cfg shared.SearchConfig, dedup shared.DedupConfig, logger *log.Logger) *SearchPipeline {
	return &SearchPipeline{provider: p, cfg: cfg, window: dedup.WindowSeconds, logger: logger}
}

// Limit applies the configured default and maximum to a requested limit.
func (s *SearchPipeline) Limit(limit int) int {
	return clampLimit(limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)
}

// Search fetches an over-sized window from the provider, scores it, drops hits below the threshold,
// sorts by score (ties keep provider order), removes near-duplicates and truncates to limit.
//
// A blank query returns an empty result without contacting the provider.
func (s *SearchPipeline) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Candidate{}, nil
	}
	if s.provider == nil {
		return nil, fmt.Errorf("%w: content provider not initialized", shared.ErrServiceUnavailable)
	}

	limit = s.Limit(limit)
	window := max(s.cfg.Window, limit*s.cfg.Oversample)

	raw, err := s.provider.SearchRaw(ctx, query, window)
	if err != nil {
		return nil, err
	}

	ranked := Rank(raw, s.cfg.Threshold, s.window)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if s.logger != nil {
		s.logger.Debug("search", "query", query, "window", window, "raw", len(raw), "results", len(ranked))
	}
	return ranked, nil
}

// Rank scores raw hits, keeps those scoring at least threshold, stable-sorts them by score descending
// and removes near-duplicates (first, highest scored, occurrence wins).
func Rank(raw []models.RawCandidate, threshold, dedupWindow int) []models.Candidate {
	scored := ranking.ScoreAll(raw)

	accepted := scored[:0]
	for _, c := range scored {
		if c.Score >= threshold {
			accepted = append(accepted, c)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Score > accepted[j].Score
	})
	return ranking.Dedupe(accepted, dedupWindow)
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		limit = def
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
