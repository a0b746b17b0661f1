package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// SpecialtyRepository reads specialties.
type SpecialtyRepository struct {
	db *sqlx.DB
}

// NewSpecialtyRepository constructs a SpecialtyRepository.
func NewSpecialtyRepository(db *sqlx.DB) *SpecialtyRepository {
	return &SpecialtyRepository{db: db}
}

// FindByID returns a specialty or sql.ErrNoRows.
func (r *SpecialtyRepository) FindByID(ctx context.Context, id string) (*models.Specialty, error) {
	const query = `SELECT id, code, created_at, updated_at FROM specialties WHERE id = $1`
	var specialty models.Specialty
	if err := r.db.GetContext(ctx, &specialty, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get specialty: %w", err)
	}
	return &specialty, nil
}
