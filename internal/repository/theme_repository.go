package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

const themeColumns = `id, name, number, term, duration, self_education_hours, audiences_count, teachers_count, discipline_id,
	previous_theme_ids, teachers_main, teachers_alternative, audience_ids, specialty_ids, created_at, updated_at`

// ThemeRepository reads curriculum themes together with their relation id arrays.
type ThemeRepository struct {
	db *sqlx.DB
}

// NewThemeRepository constructs a ThemeRepository.
func NewThemeRepository(db *sqlx.DB) *ThemeRepository {
	return &ThemeRepository{db: db}
}

// ListAll returns every theme.
func (r *ThemeRepository) ListAll(ctx context.Context) ([]models.Theme, error) {
	query := `SELECT ` + themeColumns + ` FROM themes ORDER BY discipline_id, term, id`
	var themes []models.Theme
	if err := r.db.SelectContext(ctx, &themes, query); err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	return themes, nil
}

// ListBySpecialty returns the themes taught to a specialty.
func (r *ThemeRepository) ListBySpecialty(ctx context.Context, specialtyID string) ([]models.Theme, error) {
	query := `SELECT ` + themeColumns + ` FROM themes WHERE $1 = ANY(specialty_ids) ORDER BY discipline_id, term, id`
	var themes []models.Theme
	if err := r.db.SelectContext(ctx, &themes, query, specialtyID); err != nil {
		return nil, fmt.Errorf("list themes by specialty: %w", err)
	}
	return themes, nil
}
