package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/repositories"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryAdd records a play for a user.
func (r *Runner) HistoryAdd(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}

	entry := &models.HistoryEntry{
		UserID:          cmd.String("user"),
		TrackID:         cmd.String("id"),
		Title:           cmd.String("title"),
		Artist:          cmd.String("artist"),
		DurationSeconds: cmd.Int("duration"),
	}
	if err := repositories.NewHistoryRepository(db).Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}

	r.logger.Debug("play recorded", "user", entry.UserID, "track", entry.TrackID)
	return r.writePlain("✓ Recorded play of %s for %s\n", entry.TrackID, entry.UserID)
}

// HistoryList prints a user's recent plays.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	if userID == "" {
		return fmt.Errorf("%w: user", shared.ErrMissingArgument)
	}

	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}

	filter := repositories.HistoryFilter{UserID: userID, Limit: cmd.Int("limit")}
	if since := cmd.Duration("since"); since > 0 {
		filter.Since = time.Now().Add(-since)
	}

	entries, err := repositories.NewHistoryRepository(db).List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("History for %s (%d plays)", userID, len(entries)))
	for _, e := range entries {
		artist := e.Artist
		if artist == "" {
			artist = "Unknown"
		}
		r.writePlain("%s  %s - %s  (%s)\n", e.PlayedAt.Local().Format(time.DateTime), artist, e.Title, e.TrackID)
	}
	return nil
}

// Onboarding saves a user's first-launch preferences.
func (r *Runner) Onboarding(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	o := models.Onboarding{
		Country:  cmd.String("country"),
		Language: cmd.String("language"),
		Artists:  cmd.StringSlice("artist"),
		Modes:    cmd.StringSlice("mode"),
	}

	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}

	if err := repositories.NewProfileRepository(db).SaveOnboarding(ctx, userID, o); err != nil {
		return fmt.Errorf("failed to save onboarding: %w", err)
	}
	return r.writePlain("✓ Saved preferences for %s (%d artists)\n", userID, len(o.Artists))
}

// FeedbackBlock keeps a track out of a user's future queues.
func (r *Runner) FeedbackBlock(ctx context.Context, cmd *cli.Command) error {
	feedback, err := r.feedback(ctx)
	if err != nil {
		return err
	}

	userID, trackID := cmd.String("user"), cmd.String("id")
	if err := feedback.Block(ctx, userID, trackID); err != nil {
		return fmt.Errorf("failed to block track: %w", err)
	}
	return r.writePlain("✓ Blocked %s for %s\n", trackID, userID)
}

// FeedbackUnblock lifts a block.
func (r *Runner) FeedbackUnblock(ctx context.Context, cmd *cli.Command) error {
	feedback, err := r.feedback(ctx)
	if err != nil {
		return err
	}

	userID, trackID := cmd.String("user"), cmd.String("id")
	if err := feedback.Unblock(ctx, userID, trackID); err != nil {
		return fmt.Errorf("failed to unblock track: %w", err)
	}
	return r.writePlain("✓ Unblocked %s for %s\n", trackID, userID)
}

// FeedbackList prints the tracks a user has blocked, oldest first.
func (r *Runner) FeedbackList(ctx context.Context, cmd *cli.Command) error {
	feedback, err := r.feedback(ctx)
	if err != nil {
		return err
	}

	userID := cmd.String("user")
	ids, err := feedback.Blocked(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list blocked tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(ids, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Blocked for %s (%d tracks)", userID, len(ids)))
	for _, id := range ids {
		r.writePlain("%s\n", id)
	}
	return nil
}

func (r *Runner) feedback(ctx context.Context) (*repositories.FeedbackRepository, error) {
	db, err := r.openDB(ctx)
	if err != nil {
		return nil, err
	}
	return repositories.NewFeedbackRepository(db), nil
}
