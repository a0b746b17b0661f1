package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// DisciplineRepository reads disciplines.
type DisciplineRepository struct {
	db *sqlx.DB
}

// NewDisciplineRepository constructs a DisciplineRepository.
func NewDisciplineRepository(db *sqlx.DB) *DisciplineRepository {
	return &DisciplineRepository{db: db}
}

// ListAll returns every discipline ordered by full name.
func (r *DisciplineRepository) ListAll(ctx context.Context) ([]models.Discipline, error) {
	const query = `SELECT id, full_name, short_name, created_at, updated_at FROM disciplines ORDER BY full_name ASC, id ASC`
	var disciplines []models.Discipline
	if err := r.db.SelectContext(ctx, &disciplines, query); err != nil {
		return nil, fmt.Errorf("list disciplines: %w", err)
	}
	return disciplines, nil
}
