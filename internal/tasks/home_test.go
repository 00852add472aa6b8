package tasks

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
	th "github.com/desertthunder/nextup/internal/testing"
)

type fakeProfiles struct {
	prefs *models.Onboarding
	err   error
}

func (f *fakeProfiles) GetOnboarding(context.Context, string) (*models.Onboarding, error) {
	return f.prefs, f.err
}

func TestHomeBuilder(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	searchByQuery := func(_ context.Context, query string, _ int) ([]models.RawCandidate, error) {
		return []models.RawCandidate{{ID: "for-" + query, Title: query, DurationSeconds: 200}}, nil
	}

	t.Run("fills every shelf", func(t *testing.T) {
		mock := &th.MockProvider{SearchFn: searchByQuery}
		h := NewHomeBuilder(HomeOpts{
			Search:   newTestSearch(mock),
			History:  &fakeHistory{entries: played("p1", "p2", "p1")},
			Profiles: &fakeProfiles{prefs: &models.Onboarding{Artists: []string{"Daft Punk", "Justice"}}},
			Pick:     func(n int) int { return n - 1 },
			Logger:   logger,
		})

		feed, err := h.Build(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !sameIDs(feed.JumpBackIn, "p1", "p2") {
			t.Errorf("expected de-duplicated history, got %v", ids(feed.JumpBackIn))
		}
		if !sameIDs(feed.MadeForYou, "for-Justice mix") {
			t.Errorf("unexpected made for you %v", ids(feed.MadeForYou))
		}
		if !sameIDs(feed.Trending, "for-Global Top 50 Music") {
			t.Errorf("unexpected trending %v", ids(feed.Trending))
		}

		queries := mock.Queries()
		slices.Sort(queries)
		if !slices.Equal(queries, []string{"Global Top 50 Music", "Justice mix"}) {
			t.Errorf("unexpected queries %v", queries)
		}
	})

	t.Run("shelves degrade independently", func(t *testing.T) {
		mock := &th.MockProvider{SearchFn: func(context.Context, string, int) ([]models.RawCandidate, error) {
			return nil, shared.ErrProviderUnavailable
		}}
		h := NewHomeBuilder(HomeOpts{
			Search:   newTestSearch(mock),
			History:  &fakeHistory{entries: played("p1")},
			Profiles: &fakeProfiles{err: errors.New("disk I/O error")},
			Logger:   logger,
		})

		feed, err := h.Build(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(feed.JumpBackIn) != 1 {
			t.Errorf("expected history shelf to survive, got %v", ids(feed.JumpBackIn))
		}
		if feed.MadeForYou == nil || len(feed.MadeForYou) != 0 || feed.Trending == nil || len(feed.Trending) != 0 {
			t.Errorf("expected empty non-nil shelves, got %+v", feed)
		}
	})

	t.Run("anonymous user only gets trending", func(t *testing.T) {
		mock := &th.MockProvider{SearchFn: searchByQuery}
		h := NewHomeBuilder(HomeOpts{
			Search:   newTestSearch(mock),
			History:  &fakeHistory{entries: played("p1")},
			Profiles: &fakeProfiles{prefs: &models.Onboarding{Artists: []string{"A"}}},
		})

		feed, _ := h.Build(ctx, "")
		if len(feed.JumpBackIn) != 0 || len(feed.MadeForYou) != 0 || len(feed.Trending) != 1 {
			t.Errorf("unexpected feed %+v", feed)
		}
	})

	t.Run("missing onboarding is not an error", func(t *testing.T) {
		mock := &th.MockProvider{SearchFn: searchByQuery}
		h := NewHomeBuilder(HomeOpts{
			Search:   newTestSearch(mock),
			Profiles: &fakeProfiles{err: shared.ErrNotFound},
		})

		feed, err := h.Build(ctx, "u1")
		if err != nil || len(feed.MadeForYou) != 0 {
			t.Errorf("expected empty shelf, got %+v err=%v", feed, err)
		}
	})

	t.Run("cancelled context fails the build", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		h := NewHomeBuilder(HomeOpts{Search: newTestSearch(&th.MockProvider{})})
		if _, err := h.Build(cctx, "u1"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("context ending mid-build fails the build", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		mock := &th.MockProvider{SearchFn: func(ctx context.Context, _ string, _ int) ([]models.RawCandidate, error) {
			cancel()
			return nil, ctx.Err()
		}}
		h := NewHomeBuilder(HomeOpts{
			Search:  newTestSearch(mock),
			History: &fakeHistory{entries: played("p1")},
			Logger:  logger,
		})

		feed, err := h.Build(cctx, "u1")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if feed != nil {
			t.Errorf("expected no feed, got %+v", feed)
		}
	})
}
