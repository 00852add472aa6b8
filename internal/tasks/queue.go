package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/ranking"
	"github.com/desertthunder/nextup/internal/services"
	"github.com/desertthunder/nextup/internal/shared"
)

const unknownArtist = "Unknown"

// HistorySource is the read side of the profile store the queue needs.
type HistorySource interface {
	// Recent returns a user's plays, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error)
}

// BlockSource lists the tracks a user marked as not relevant.
type BlockSource interface {
	Blocked(ctx context.Context, userID string) ([]string, error)
}

// QueueGenerator builds a diverse "up next" sequence from a seed track.
type QueueGenerator struct {
	provider services.Searcher
	history  HistorySource
	blocks   BlockSource
	cfg      shared.QueueConfig
	logger   *log.Logger
}

// QueueOpts contains the collaborators of a [QueueGenerator]. History and Blocks may be nil.
type QueueOpts struct {
	Provider services.Searcher
	History  HistorySource
	Blocks   BlockSource
	Config   shared.QueueConfig
	Logger   *log.Logger
}

func NewQueueGenerator(opts QueueOpts) *QueueGenerator {
	return &QueueGenerator{
		provider: opts.Provider,
		history:  opts.History,
		blocks:   opts.Blocks,
		cfg:      opts.Config,
		logger:   opts.Logger,
	}
}

// Limit applies the configured default and maximum to a requested limit.
func (q *QueueGenerator) Limit(limit int) int {
	return clampLimit(limit, q.cfg.DefaultLimit, q.cfg.MaxLimit)
}

// Query builds the radio-style provider query for seed.
func (q *QueueGenerator) Query(seed models.SeedTrack) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{seed.Artist, seed.Title, q.cfg.Modifier} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Generate returns at most limit candidates related to seed, in provider order.
//
// Ids in history are never returned, no id appears twice and no artist appears more
// than the configured cap. A short result is not an error.
func (q *QueueGenerator) Generate(ctx context.Context, seed models.SeedTrack, history []models.HistoryEntry, limit int) ([]models.Candidate, error) {
	excluded := make([]string, 0, len(history)+1)
	for _, h := range history {
		excluded = append(excluded, h.TrackID)
	}
	return q.generate(ctx, seed, excluded, limit)
}

// GenerateForUser loads the user's recent history and blocked tracks before generating.
//
// Profile store failures are logged and the queue is built without them.
func (q *QueueGenerator) GenerateForUser(ctx context.Context, userID string, seed models.SeedTrack, limit int) ([]models.Candidate, error) {
	var excluded []string

	if q.history != nil && userID != "" {
		recent, err := q.history.Recent(ctx, userID, q.cfg.HistoryLimit)
		if err != nil {
			q.warn("history unavailable, continuing without it", "user_id", userID, "error", err)
		}
		for _, h := range recent {
			excluded = append(excluded, h.TrackID)
		}
	}

	if q.blocks != nil && userID != "" {
		blocked, err := q.blocks.Blocked(ctx, userID)
		if err != nil {
			q.warn("blocked tracks unavailable, continuing without them", "user_id", userID, "error", err)
		}
		excluded = append(excluded, blocked...)
	}

	return q.generate(ctx, seed, excluded, limit)
}

func (q *QueueGenerator) generate(ctx context.Context, seed models.SeedTrack, excluded []string, limit int) ([]models.Candidate, error) {
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if q.provider == nil {
		return nil, fmt.Errorf("%w: content provider not initialized", shared.ErrServiceUnavailable)
	}

	limit = q.Limit(limit)
	query := q.Query(seed)

	raw, err := q.provider.SearchRaw(ctx, query, q.cfg.Window)
	if err != nil {
		return nil, err
	}

	state := newQueueState(excluded, q.cfg.ArtistCap)

	out := make([]models.Candidate, 0, limit)
	for _, r := range raw {
		if len(out) >= limit {
			break
		}
		if !ranking.Valid(r) {
			continue
		}

		c := ranking.FromRaw(r)
		if strings.TrimSpace(c.Artist) == "" {
			c.Artist = unknownArtist
		}
		if state.accept(c) {
			out = append(out, c)
		}
	}

	if q.logger != nil {
		q.logger.Debug("queue", "query", query, "raw", len(raw), "excluded", len(state.excluded), "queued", len(out))
	}
	return out, nil
}

func (q *QueueGenerator) warn(msg string, kv ...any) {
	if q.logger != nil {
		q.logger.Warn(msg, kv...)
	}
}

// queueState tracks the constraints of one Generate call.
type queueState struct {
	excluded     map[string]struct{}
	seen         map[string]struct{}
	artistCounts map[string]int
	cap          int
}

func newQueueState(excluded []string, artistCap int) *queueState {
	s := &queueState{
		excluded:     make(map[string]struct{}, len(excluded)),
		seen:         make(map[string]struct{}),
		artistCounts: make(map[string]int),
		cap:          artistCap,
	}
	for _, id := range excluded {
		s.exclude(id)
	}
	return s
}

func (s *queueState) exclude(id string) {
	if id = strings.TrimSpace(id); id != "" {
		s.excluded[id] = struct{}{}
	}
}

// accept records c and reports true if it passes every constraint.
func (s *queueState) accept(c models.Candidate) bool {
	if _, ok := s.excluded[c.ID]; ok {
		return false
	}
	if _, ok := s.seen[c.ID]; ok {
		return false
	}
	if s.cap > 0 && s.artistCounts[c.Artist] >= s.cap {
		return false
	}

	s.seen[c.ID] = struct{}{}
	s.artistCounts[c.Artist]++
	return true
}
