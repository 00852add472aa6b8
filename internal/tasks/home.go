package tasks

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	shelfSize     = 10
	trendingQuery = "Global Top 50 Music"
)

// ProfileSource reads onboarding preferences.
type ProfileSource interface {
	GetOnboarding(ctx context.Context, userID string) (*models.Onboarding, error)
}

// HomeBuilder assembles the home screen shelves.
type HomeBuilder struct {
	search   *SearchPipeline
	history  HistorySource
	profiles ProfileSource
	pick     func(n int) int
	logger   *log.Logger
}

// HomeOpts contains the collaborators of a [HomeBuilder]. Pick chooses the seed artist and defaults to
// a uniform random index.
type HomeOpts struct {
	Search   *SearchPipeline
	History  HistorySource
	Profiles ProfileSource
	Pick     func(n int) int
	Logger   *log.Logger
}

func NewHomeBuilder(opts HomeOpts) *HomeBuilder {
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	return &HomeBuilder{
		search:   opts.Search,
		history:  opts.History,
		profiles: opts.Profiles,
		pick:     opts.Pick,
		logger:   opts.Logger,
	}
}

// Build returns the three shelves for userID. Shelves are filled concurrently and each one degrades to
// empty on failure, so Build only fails when ctx does.
func (h *HomeBuilder) Build(ctx context.Context, userID string) (*models.HomeFeed, error) {
	feed := &models.HomeFeed{
		JumpBackIn: []models.Candidate{},
		MadeForYou: []models.Candidate{},
		Trending:   []models.Candidate{},
	}

	// Shelf errors are logged and swallowed; only the caller's context ending reaches the group.
	var g errgroup.Group
	g.Go(func() error {
		feed.JumpBackIn = h.shelf("jump_back_in", h.jumpBackIn(ctx, userID))
		return ctx.Err()
	})
	g.Go(func() error {
		feed.MadeForYou = h.shelf("made_for_you", h.madeForYou(ctx, userID))
		return ctx.Err()
	})
	g.Go(func() error {
		feed.Trending = h.shelf("trending", h.searchShelf(ctx, trendingQuery))
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return feed, nil
}

type shelfResult struct {
	items []models.Candidate
	err   error
}

func (h *HomeBuilder) shelf(name string, r shelfResult) []models.Candidate {
	if r.err != nil && h.logger != nil {
		h.logger.Warn("home shelf unavailable", "shelf", name, "error", r.err)
	}
	if r.err != nil || r.items == nil {
		return []models.Candidate{}
	}
	return r.items
}

func (h *HomeBuilder) jumpBackIn(ctx context.Context, userID string) shelfResult {
	if h.history == nil || userID == "" {
		return shelfResult{}
	}

	entries, err := h.history.Recent(ctx, userID, shelfSize)
	if err != nil {
		return shelfResult{err: err}
	}

	seen := make(map[string]struct{}, len(entries))
	items := make([]models.Candidate, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.TrackID]; dup {
			continue
		}
		seen[e.TrackID] = struct{}{}
		items = append(items, e.Candidate())
	}
	return shelfResult{items: items}
}

func (h *HomeBuilder) madeForYou(ctx context.Context, userID string) shelfResult {
	if h.profiles == nil || userID == "" {
		return shelfResult{}
	}

	prefs, err := h.profiles.GetOnboarding(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return shelfResult{}
	}
	if err != nil {
		return shelfResult{err: err}
	}
	if len(prefs.Artists) == 0 {
		return shelfResult{}
	}

	artist := prefs.Artists[h.pick(len(prefs.Artists))]
	return h.searchShelf(ctx, artist+" mix")
}

func (h *HomeBuilder) searchShelf(ctx context.Context, query string) shelfResult {
	if h.search == nil {
		return shelfResult{}
	}
	items, err := h.search.Search(ctx, query, shelfSize)
	return shelfResult{items: items, err: err}
}
