package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// TroopRepository reads troops.
type TroopRepository struct {
	db *sqlx.DB
}

// NewTroopRepository constructs a TroopRepository.
func NewTroopRepository(db *sqlx.DB) *TroopRepository {
	return &TroopRepository{db: db}
}

// ListAll returns every troop ordered by code.
func (r *TroopRepository) ListAll(ctx context.Context) ([]models.Troop, error) {
	const query = `SELECT id, code, day, term, specialty_id, created_at, updated_at FROM troops ORDER BY code ASC`
	var troops []models.Troop
	if err := r.db.SelectContext(ctx, &troops, query); err != nil {
		return nil, fmt.Errorf("list troops: %w", err)
	}
	return troops, nil
}

// FindByID returns a troop or sql.ErrNoRows.
func (r *TroopRepository) FindByID(ctx context.Context, id string) (*models.Troop, error) {
	const query = `SELECT id, code, day, term, specialty_id, created_at, updated_at FROM troops WHERE id = $1`
	var troop models.Troop
	if err := r.db.GetContext(ctx, &troop, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get troop: %w", err)
	}
	return &troop, nil
}
