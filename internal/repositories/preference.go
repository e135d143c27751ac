package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/shared"
)

// PreferenceRepository persists [models.Preference] rows in the preferences table.
type PreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository creates a new [PreferenceRepository] with the given database connection
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get retrieves a preference by key.
//
// Returns an error wrapping [shared.ErrNotFound] when the key has never been set.
func (r *PreferenceRepository) Get(key string) (*models.Preference, error) {
	query := `
		SELECT id, key, value, created_at, updated_at
		FROM preferences
		WHERE key = ?
	`

	var p models.Preference
	err := r.db.QueryRow(query, key).Scan(&p.ID, &p.Key, &p.Value, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: preference %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preference: %w", err)
	}

	return &p, nil
}

// Set inserts the preference or updates the stored value.
func (r *PreferenceRepository) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: preference key is required", shared.ErrInvalidInput)
	}

	now := time.Now()
	query := `
		INSERT INTO preferences (id, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, shared.GenerateID(), key, value, now, now); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// Delete removes a preference by key
func (r *PreferenceRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: preference %s", shared.ErrNotFound, key)
	}

	return nil
}

// List retrieves all preferences ordered by key
func (r *PreferenceRepository) List() ([]*models.Preference, error) {
	rows, err := r.db.Query(`SELECT id, key, value, created_at, updated_at FROM preferences ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*models.Preference
	for rows.Next() {
		var p models.Preference
		if err := rows.Scan(&p.ID, &p.Key, &p.Value, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return prefs, nil
}

// Theme returns the stored theme, or fallback when none is stored or the stored value is unreadable.
func (r *PreferenceRepository) Theme(fallback models.Theme) (models.Theme, error) {
	p, err := r.Get(models.ThemeKey)
	if errors.Is(err, shared.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}

	theme, err := models.ParseTheme(p.Value)
	if err != nil {
		return fallback, nil
	}
	return theme, nil
}

// SetTheme stores the theme preference.
func (r *PreferenceRepository) SetTheme(theme models.Theme) error {
	if _, err := models.ParseTheme(string(theme)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return r.Set(models.ThemeKey, string(theme))
}
