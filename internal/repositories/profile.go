package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
)

// ProfileRepository persists onboarding preferences.
type ProfileRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewProfileRepository creates a new ProfileRepository with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db, now: time.Now}
}

// SaveOnboarding inserts or replaces the preferences for userID.
func (r *ProfileRepository) SaveOnboarding(ctx context.Context, userID string, o models.Onboarding) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	artists, err := json.Marshal(o.Artists)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}
	modes, err := json.Marshal(o.Modes)
	if err != nil {
		return fmt.Errorf("failed to encode modes: %w", err)
	}

	query := `
		INSERT INTO profiles (user_id, country, language, artists, modes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			country = excluded.country,
			language = excluded.language,
			artists = excluded.artists,
			modes = excluded.modes,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query, userID, o.Country, o.Language, string(artists), string(modes), r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save onboarding: %w", err)
	}
	return nil
}

// GetOnboarding returns the preferences for userID or [shared.ErrNotFound].
func (r *ProfileRepository) GetOnboarding(ctx context.Context, userID string) (*models.Onboarding, error) {
	query := `SELECT country, language, artists, modes FROM profiles WHERE user_id = ?`

	var o models.Onboarding
	var artists, modes string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&o.Country, &o.Language, &artists, &modes)
	if err != nil {
		return nil, notFound(err, "no onboarding for "+userID)
	}

	if err := json.Unmarshal([]byte(artists), &o.Artists); err != nil {
		return nil, fmt.Errorf("failed to decode artists: %w", err)
	}
	if err := json.Unmarshal([]byte(modes), &o.Modes); err != nil {
		return nil, fmt.Errorf("failed to decode modes: %w", err)
	}
	return &o, nil
}
