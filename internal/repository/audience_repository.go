package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// AudienceRepository reads audiences.
type AudienceRepository struct {
	db *sqlx.DB
}

// NewAudienceRepository constructs an AudienceRepository.
func NewAudienceRepository(db *sqlx.DB) *AudienceRepository {
	return &AudienceRepository{db: db}
}

// ListAll returns every audience ordered by location.
func (r *AudienceRepository) ListAll(ctx context.Context) ([]models.Audience, error) {
	const query = `SELECT id, description, location, created_at, updated_at FROM audiences ORDER BY location ASC, id ASC`
	var audiences []models.Audience
	if err := r.db.SelectContext(ctx, &audiences, query); err != nil {
		return nil, fmt.Errorf("list audiences: %w", err)
	}
	return audiences, nil
}
