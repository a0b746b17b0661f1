package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

const lessonColumns = `id, date_of, initial_hour, troop_id, theme_id, self_education, teacher_ids, audience_ids, created_at`

// LessonRepository persists lessons written by timetable builds.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// CreateLesson inserts a lesson, filling id and timestamp when missing.
func (r *LessonRepository) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}
	if lesson.TeacherIDs == nil {
		lesson.TeacherIDs = pq.StringArray{}
	}
	if lesson.AudienceIDs == nil {
		lesson.AudienceIDs = pq.StringArray{}
	}

	const query = `INSERT INTO lessons (` + lessonColumns + `) VALUES (:id, :date_of, :initial_hour, :troop_id, :theme_id, :self_education, :teacher_ids, :audience_ids, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// DeleteAll removes every lesson and reports how many were deleted.
func (r *LessonRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons`)
	if err != nil {
		return 0, fmt.Errorf("delete lessons: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete lessons rows affected: %w", err)
	}
	return affected, nil
}

// List returns lessons matching the filter ordered by date, troop and start hour.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	var conditions []string
	var args []interface{}

	if filter.TroopID != "" {
		conditions = append(conditions, fmt.Sprintf("l.troop_id = $%d", len(args)+1))
		args = append(args, filter.TroopID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("l.date_of >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("l.date_of <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	query := `SELECT l.id, l.date_of, l.initial_hour, l.troop_id, l.theme_id, l.self_education, l.teacher_ids, l.audience_ids, l.created_at
		FROM lessons l JOIN troops t ON t.id = l.troop_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY l.date_of ASC, t.code ASC, l.initial_hour ASC"

	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}
