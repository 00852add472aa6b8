package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/desertthunder/nextup/internal/shared"
)

// FeedbackRepository persists "not relevant" feedback.
type FeedbackRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewFeedbackRepository creates a new FeedbackRepository with the given database connection
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db, now: time.Now}
}

// Block hides trackID from userID's future queues. Blocking twice is a no-op.
func (r *FeedbackRepository) Block(ctx context.Context, userID, trackID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(trackID) == "" {
		return fmt.Errorf("%w: user id and track id are required", shared.ErrInvalidInput)
	}

	query := `INSERT OR IGNORE INTO blocked_tracks (user_id, track_id, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, userID, trackID, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to block track: %w", err)
	}
	return nil
}

// Unblock removes a block. Removing a missing block is a no-op.
func (r *FeedbackRepository) Unblock(ctx context.Context, userID, trackID string) error {
	query, args, err := sq.Delete("blocked_tracks").
		Where(sq.Eq{"user_id": userID, "track_id": trackID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to unblock track: %w", err)
	}
	return nil
}

// Blocked lists the track ids userID has blocked, oldest first.
func (r *FeedbackRepository) Blocked(ctx context.Context, userID string) ([]string, error) {
	query, args, err := sq.Select("track_id").
		From("blocked_tracks").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "rowid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked tracks: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan blocked track: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blocked tracks: %w", err)
	}
	return ids, nil
}
