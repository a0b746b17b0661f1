// Package timetable builds troop timetables with a single greedy pass over
// weeks, troops and hours.
package timetable

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/troop-timetable-api/internal/models"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
)

// LessonWriter persists committed lessons.
type LessonWriter interface {
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
}

// ProgressRecorder receives the running count of committed hours.
type ProgressRecorder interface {
	SetCurrentLoad(ctx context.Context, hours int) error
}

// Config holds the daily hour ceilings and the troop order policy.
type Config struct {
	LessonHours        int
	SelfEducationHours int
	Order              OrderPolicy
}

// Result summarises a finished build. OversizedSelfStudy lists themes whose
// self-study never fits the daily self-study block.
type Result struct {
	Weeks              int
	Lessons            int
	SelfStudyLessons   int
	Understaffed       int
	CommittedHours     int
	Cycles             [][]string
	OversizedSelfStudy []string
}

// Engine schedules the lessons of every troop of a curriculum.
type Engine struct {
	curriculum *Curriculum
	writer     LessonWriter
	progress   ProgressRecorder
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time

	ledger *Ledger
}

// NewEngine constructs an engine. A nil progress recorder is allowed.
func NewEngine(curriculum *Curriculum, writer LessonWriter, progress ProgressRecorder, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Order == nil {
		cfg.Order = Deterministic{}
	}
	return &Engine{
		curriculum: curriculum,
		writer:     writer,
		progress:   progress,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Ledger exposes the lessons committed by the last build.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Build schedules weeks consecutive weeks starting with the week of start.
// Every run starts from an empty ledger. A failing writer aborts the build;
// lessons written before the failure stay written.
func (e *Engine) Build(ctx context.Context, start time.Time, weeks int) (Result, error) {
	if e.cfg.LessonHours <= 0 || e.cfg.SelfEducationHours < 0 {
		return Result{}, appErrors.Clone(appErrors.ErrConfiguration,
			fmt.Sprintf("invalid daily hours: lessons %d, self-education %d", e.cfg.LessonHours, e.cfg.SelfEducationHours))
	}
	if weeks <= 0 {
		return Result{}, appErrors.Clone(appErrors.ErrValidation, "term length must be positive")
	}
	if err := e.checkCapacities(); err != nil {
		return Result{}, err
	}

	e.ledger = NewLedger()
	priorities := NewPriorities(e.curriculum, e.ledger)
	selector := NewSelector(e.curriculum, e.ledger, priorities, NewConflicts(e.ledger), e.cfg.LessonHours)

	result := Result{Weeks: weeks, Cycles: PrerequisiteCycles(e.curriculum.AllThemes())}
	for _, cycle := range result.Cycles {
		e.logger.Warn("prerequisite cycle, themes will not be scheduled", zap.Strings("theme_ids", cycle))
	}
	for _, theme := range e.curriculum.AllThemes() {
		if theme.SelfEducationHours > e.cfg.SelfEducationHours {
			result.OversizedSelfStudy = append(result.OversizedSelfStudy, theme.ID)
			e.logger.Warn("self-study longer than the daily block, it will not be scheduled",
				zap.String("theme_id", theme.ID),
				zap.Int("self_education_hours", theme.SelfEducationHours),
				zap.Int("block_hours", e.cfg.SelfEducationHours),
			)
		}
	}
	e.recordProgress(ctx, 0)

	carried := make(map[string][]models.Theme)
	monday := weekStart(start)
	for week := 0; week < weeks; week++ {
		for _, troop := range e.cfg.Order.Order(e.curriculum.Troops(), week) {
			date := monday.AddDate(0, 0, troop.Day)

			today, err := e.fillMainBlock(ctx, selector, priorities, troop, date, &result)
			if err != nil {
				return result, err
			}

			buffer := append(selfStudyThemes(today), selfStudyThemes(carried[troop.ID])...)
			rest, err := e.fillSelfStudyBlock(ctx, selector, troop, date, buffer, &result)
			if err != nil {
				return result, err
			}
			carried[troop.ID] = rest
		}
		e.logger.Debug("week scheduled", zap.Int("week", week+1), zap.Time("monday", monday), zap.Int("lessons", result.Lessons))
		monday = monday.AddDate(0, 0, 7)
	}

	return result, nil
}

// checkCapacities fails before anything is written when a teacher eligible
// for some theme cannot be ranked.
func (e *Engine) checkCapacities() error {
	for _, theme := range e.curriculum.AllThemes() {
		for _, ids := range [][]string{theme.TeachersMain, theme.TeachersAlternative} {
			for _, id := range ids {
				if teacher, ok := e.curriculum.Teacher(id); ok && teacher.WorkHoursLimit <= 0 {
					return ZeroCapacityError(teacher)
				}
			}
		}
	}
	return nil
}

func (e *Engine) fillMainBlock(ctx context.Context, selector *Selector, priorities *Priorities, troop models.Troop, date time.Time, result *Result) ([]models.Theme, error) {
	today := make([]models.Theme, 0)
	hour := 0
	for hour < e.cfg.LessonHours {
		candidate, err := selector.SelectLesson(priorities.DisciplinePriority(troop), troop, date, hour)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			break
		}
		if err := e.commit(ctx, candidate, troop, date, hour, false, result); err != nil {
			return nil, err
		}
		hour += candidate.Theme.Duration
		today = append(today, candidate.Theme)
	}
	return today, nil
}

func (e *Engine) fillSelfStudyBlock(ctx context.Context, selector *Selector, troop models.Troop, date time.Time, buffer []models.Theme, result *Result) ([]models.Theme, error) {
	ceiling := e.cfg.LessonHours + e.cfg.SelfEducationHours
	hour := e.cfg.LessonHours
	for hour < ceiling && len(buffer) > 0 {
		candidate, idx, err := selector.SelectSelfStudy(buffer, troop, date, hour, ceiling)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			break
		}
		if err := e.commit(ctx, candidate, troop, date, hour, true, result); err != nil {
			return nil, err
		}
		hour += candidate.Theme.SelfEducationHours
		buffer = append(buffer[:idx:idx], buffer[idx+1:]...)
	}
	return buffer, nil
}

func (e *Engine) commit(ctx context.Context, candidate *Candidate, troop models.Troop, date time.Time, hour int, selfStudy bool, result *Result) error {
	lesson := models.Lesson{
		ID:            uuid.NewString(),
		Date:          date,
		InitialHour:   hour,
		TroopID:       troop.ID,
		ThemeID:       candidate.Theme.ID,
		SelfEducation: selfStudy,
		TeacherIDs:    append([]string{}, candidate.TeacherIDs...),
		AudienceIDs:   append([]string{}, candidate.AudienceIDs...),
		CreatedAt:     e.now().UTC(),
	}
	if err := e.writer.CreateLesson(ctx, &lesson); err != nil {
		return fmt.Errorf("write lesson for troop %s: %w", troop.Code, err)
	}
	e.ledger.Commit(lesson, candidate.Theme)

	result.Lessons++
	if selfStudy {
		result.SelfStudyLessons++
	}
	if lesson.Understaffed() {
		result.Understaffed++
		e.logger.Debug("understaffed lesson",
			zap.String("troop", troop.Code),
			zap.String("theme_id", lesson.ThemeID),
			zap.Time("date", date),
			zap.Int("hour", hour),
		)
	}
	result.CommittedHours += Span(lesson, candidate.Theme)
	e.recordProgress(ctx, result.CommittedHours)
	return nil
}

func (e *Engine) recordProgress(ctx context.Context, hours int) {
	if e.progress == nil {
		return
	}
	if err := e.progress.SetCurrentLoad(ctx, hours); err != nil {
		e.logger.Warn("record build progress", zap.Int("hours", hours), zap.Error(err))
	}
}

// selfStudyThemes keeps themes with self-study hours, most hours first.
func selfStudyThemes(themes []models.Theme) []models.Theme {
	result := make([]models.Theme, 0, len(themes))
	for _, theme := range themes {
		if theme.SelfEducationHours > 0 {
			result = append(result, theme)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SelfEducationHours > result[j].SelfEducationHours
	})
	return result
}

// weekStart returns midnight UTC of the Monday of t's week.
func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
