package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/nextup/internal/formatter"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/repositories"
	"github.com/desertthunder/nextup/internal/shared"
	"github.com/desertthunder/nextup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Search runs the ranked search pipeline for a query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if err := r.requireProvider(); err != nil {
		return err
	}

	r.logger.Info("searching", "query", query, "provider", r.provider.Name())

	results, err := r.search.Search(ctx, query, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return r.writeTracks(cmd, fmt.Sprintf("Results for %q", query), results)
}

// Queue builds an "up next" queue for a seed track.
func (r *Runner) Queue(ctx context.Context, cmd *cli.Command) error {
	seed := models.SeedTrack{
		ID:     cmd.String("id"),
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
	}
	if err := seed.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingArgument, err)
	}

	gen, err := r.queueGenerator(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("building queue", "seed", gen.Query(seed))

	var queue []models.Candidate
	if userID := cmd.String("user"); userID != "" {
		queue, err = gen.GenerateForUser(ctx, userID, seed, cmd.Int("limit"))
	} else {
		history := make([]models.HistoryEntry, 0, len(cmd.StringSlice("exclude")))
		for _, id := range cmd.StringSlice("exclude") {
			history = append(history, models.HistoryEntry{TrackID: id})
		}
		queue, err = gen.Generate(ctx, seed, history, cmd.Int("limit"))
	}
	if err != nil {
		return fmt.Errorf("queue generation failed: %w", err)
	}

	if cmd.Bool("prefetch") && len(queue) > 0 {
		if err := r.prefetchQueue(ctx, queue); err != nil {
			return err
		}
	}

	title := "Up next"
	if seed.Title != "" {
		title = fmt.Sprintf("Up next after %q", seed.Title)
	}
	return r.writeTracks(cmd, title, queue)
}

// prefetchQueue warms the stream cache for the head of the queue and reports progress on the logger.
func (r *Runner) prefetchQueue(ctx context.Context, queue []models.Candidate) error {
	streams, err := r.streamResolver(ctx)
	if err != nil {
		return err
	}

	n := min(max(r.config.Queue.Prefetch, 1), len(queue))
	ids := make([]string, 0, n)
	for _, c := range queue[:n] {
		ids = append(ids, c.ID)
	}

	progress := make(chan tasks.ProgressUpdate, n+1)
	done := make(chan *tasks.PrefetchResult, 1)
	go func() {
		done <- r.prefetcher(streams).Warm(ctx, progress, ids)
		close(progress)
	}()

	for update := range progress {
		r.logger.Debug("prefetch", "phase", update.Phase, "step", update.Step, "total", update.Total, "message", update.Message)
	}

	res := <-done
	r.logger.Info("prefetched streams", "resolved", res.Resolved, "cached", res.Cached, "failed", res.Failed)
	for id, err := range res.Errors {
		r.logger.Warn("prefetch failed", "id", id, "error", err)
	}
	return nil
}

// Stream resolves the playable audio URL for a track.
func (r *Runner) Stream(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	streams, err := r.streamResolver(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("refresh") {
		if err := streams.Invalidate(ctx, id); err != nil {
			return fmt.Errorf("failed to drop cached stream: %w", err)
		}
	}

	res, err := streams.Resolve(ctx, id)
	if err != nil {
		return fmt.Errorf("stream resolution failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.StreamToText(res))
}

// Home renders the home shelves for a user.
func (r *Runner) Home(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	if userID == "" {
		return fmt.Errorf("%w: user", shared.ErrMissingArgument)
	}

	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}

	home := tasks.NewHomeBuilder(tasks.HomeOpts{
		Search:   r.search,
		History:  repositories.NewHistoryRepository(db),
		Profiles: repositories.NewProfileRepository(db),
		Logger:   shared.WithLogger(r.logger, "component", "home"),
	})

	feed, err := home.Build(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to build home feed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(feed, cmd.Bool("pretty"))
	}

	data, err := formatter.HomeToText(feed)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// writeTracks prints a track list as JSON, in a formatter format, or exports it to --output.
func (r *Runner) writeTracks(cmd *cli.Command, title string, tracks []models.Candidate) error {
	format := cmd.String("format")

	if path := cmd.String("output"); path != "" {
		if strings.EqualFold(format, formatter.FormatMarkdown) || strings.EqualFold(format, "md") {
			res, err := formatter.WriteMarkdownExport(r.httpClient, title, tracks, path)
			if err != nil {
				return err
			}
			r.logger.Info("exported", "dir", res.Directory, "files", len(res.Files))
			return r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), res.Directory)
		}

		written, err := formatter.WriteExport(format, title, tracks, path)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), written)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	data, err := formatter.Render(format, title, tracks)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
