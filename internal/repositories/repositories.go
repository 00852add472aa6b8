package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
)

// HistoryFilter narrows [HistoryRepository.List]. Zero values mean "no constraint" (Limit 0 is unlimited).
type HistoryFilter struct {
	UserID string
	Since  time.Time
	Limit  int
}

// HistoryRepository persists played tracks.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Add records a play. ID and PlayedAt are filled in when empty.
func (r *HistoryRepository) Add(ctx context.Context, entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	if entry.PlayedAt.IsZero() {
		entry.PlayedAt = r.now()
	}
	entry.PlayedAt = entry.PlayedAt.UTC()

	query, args, err := sq.Insert("play_history").
		Columns("id", "user_id", "track_id", "title", "artist", "duration_seconds", "thumbnail_url", "played_at").
		Values(entry.ID, entry.UserID, entry.TrackID, entry.Title, entry.Artist, entry.DurationSeconds, entry.ThumbnailURL, entry.PlayedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Recent returns a user's most recent plays, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		return []models.HistoryEntry{}, nil
	}
	return r.List(ctx, HistoryFilter{UserID: userID, Limit: limit})
}

// List returns plays matching f, newest first.
func (r *HistoryRepository) List(ctx context.Context, f HistoryFilter) ([]models.HistoryEntry, error) {
	where := sq.And{}
	if f.UserID != "" {
		where = append(where, sq.Eq{"user_id": f.UserID})
	}
	if !f.Since.IsZero() {
		where = append(where, sq.Gt{"played_at": f.Since.UTC()})
	}

	b := sq.Select("id", "user_id", "track_id", "title", "artist", "duration_seconds", "thumbnail_url", "played_at").
		From("play_history").
		OrderBy("played_at DESC", "rowid DESC")
	if len(where) > 0 {
		b = b.Where(where)
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.TrackID, &e.Title, &e.Artist, &e.DurationSeconds, &e.ThumbnailURL, &e.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}

// notFound maps [sql.ErrNoRows] onto [shared.ErrNotFound].
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
	}
	return err
}
