package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/troop-timetable-api/internal/models"
	"github.com/noah-isme/troop-timetable-api/internal/timetable"
)

type troopReader interface {
	ListAll(ctx context.Context) ([]models.Troop, error)
	FindByID(ctx context.Context, id string) (*models.Troop, error)
}

type disciplineReader interface {
	ListAll(ctx context.Context) ([]models.Discipline, error)
}

type themeReader interface {
	ListAll(ctx context.Context) ([]models.Theme, error)
}

type teacherReader interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type audienceReader interface {
	ListAll(ctx context.Context) ([]models.Audience, error)
}

// CurriculumLoader reads the full curriculum into a scheduling snapshot.
type CurriculumLoader struct {
	troops      troopReader
	disciplines disciplineReader
	themes      themeReader
	teachers    teacherReader
	audiences   audienceReader
}

// NewCurriculumLoader wires the curriculum repositories.
func NewCurriculumLoader(troops troopReader, disciplines disciplineReader, themes themeReader, teachers teacherReader, audiences audienceReader) *CurriculumLoader {
	return &CurriculumLoader{
		troops:      troops,
		disciplines: disciplines,
		themes:      themes,
		teachers:    teachers,
		audiences:   audiences,
	}
}

// Load returns the current curriculum.
func (l *CurriculumLoader) Load(ctx context.Context) (timetable.Snapshot, error) {
	var (
		snapshot timetable.Snapshot
		err      error
	)
	if snapshot.Troops, err = l.troops.ListAll(ctx); err != nil {
		return timetable.Snapshot{}, fmt.Errorf("load troops: %w", err)
	}
	if snapshot.Disciplines, err = l.disciplines.ListAll(ctx); err != nil {
		return timetable.Snapshot{}, fmt.Errorf("load disciplines: %w", err)
	}
	if snapshot.Themes, err = l.themes.ListAll(ctx); err != nil {
		return timetable.Snapshot{}, fmt.Errorf("load themes: %w", err)
	}
	if snapshot.Teachers, err = l.teachers.ListAll(ctx); err != nil {
		return timetable.Snapshot{}, fmt.Errorf("load teachers: %w", err)
	}
	if snapshot.Audiences, err = l.audiences.ListAll(ctx); err != nil {
		return timetable.Snapshot{}, fmt.Errorf("load audiences: %w", err)
	}
	return snapshot, nil
}

// Troop returns a single troop.
func (l *CurriculumLoader) Troop(ctx context.Context, id string) (*models.Troop, error) {
	return l.troops.FindByID(ctx, id)
}
