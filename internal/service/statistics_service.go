package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/troop-timetable-api/internal/dto"
	"github.com/noah-isme/troop-timetable-api/internal/models"
	"github.com/noah-isme/troop-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
)

type lessonLister interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
}

type curriculumReader interface {
	Load(ctx context.Context) (timetable.Snapshot, error)
	Troop(ctx context.Context, id string) (*models.Troop, error)
}

type specialtyReader interface {
	FindByID(ctx context.Context, id string) (*models.Specialty, error)
}

// StatisticsConfig tunes statistics computation.
type StatisticsConfig struct {
	TermsCount int
	CacheTTL   time.Duration
}

// StatisticsService derives load and progress figures from committed lessons.
type StatisticsService struct {
	curriculum  curriculumReader
	specialties specialtyReader
	lessons     lessonLister
	cache       statisticsCache
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         StatisticsConfig
}

// NewStatisticsService constructs the service. A nil cache disables caching.
func NewStatisticsService(curriculum curriculumReader, specialties specialtyReader, lessons lessonLister, cache statisticsCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg StatisticsConfig) *StatisticsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TermsCount <= 0 {
		cfg.TermsCount = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &StatisticsService{
		curriculum:  curriculum,
		specialties: specialties,
		lessons:     lessons,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// TeacherLoad reports hours taught by each teacher within the window. Self-study
// lessons count their self-study hours.
func (s *StatisticsService) TeacherLoad(ctx context.Context, query dto.TeacherLoadQuery) ([]models.TeacherLoad, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date range")
	}
	from, _ := dto.ParseDate(query.DateFrom)
	to, _ := dto.ParseDate(query.DateTo)
	if from != nil && to != nil && to.Before(*from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_to must not precede date_from")
	}

	key := fmt.Sprintf("teachers-load:%s:%s", query.DateFrom, query.DateTo)
	var cached []models.TeacherLoad
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	snapshot, err := s.curriculum.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	lessons, err := s.lessons.List(ctx, models.LessonFilter{DateFrom: from, DateTo: to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	c := timetable.NewCurriculum(snapshot)
	hours := make(map[string]int)
	for _, lesson := range lessons {
		theme, ok := c.Theme(lesson.ThemeID)
		if !ok {
			continue
		}
		for _, teacherID := range lesson.TeacherIDs {
			hours[teacherID] += timetable.Span(lesson, theme)
		}
	}

	result := make([]models.TeacherLoad, 0, len(snapshot.Teachers))
	for _, teacher := range snapshot.Teachers {
		absolute := hours[teacher.ID]
		var relative float64
		if teacher.WorkHoursLimit > 0 {
			relative = float64(absolute) / float64(teacher.WorkHoursLimit)
		}
		result = append(result, models.TeacherLoad{
			TeacherID:  teacher.ID,
			Name:       teacher.DisplayName(),
			Statistics: models.LoadStatistics{Absolute: absolute, Relative: relative},
		})
	}

	s.toCache(ctx, key, result)
	return result, nil
}

// TroopProgress reports per discipline progress of a troop at its term.
func (s *StatisticsService) TroopProgress(ctx context.Context, troopID string) (*models.TroopProgress, error) {
	troop, err := s.curriculum.Troop(ctx, troopID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "troop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load troop")
	}

	key := "troop-progress:" + troop.ID
	var cached models.TroopProgress
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	snapshot, err := s.curriculum.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	lessons, err := s.lessons.List(ctx, models.LessonFilter{TroopID: troop.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	progress := troopProgress(timetable.NewCurriculum(snapshot), *troop, lessons)
	s.toCache(ctx, key, progress)
	return &progress, nil
}

// TroopsProgress reports the progress of every troop.
func (s *StatisticsService) TroopsProgress(ctx context.Context) ([]models.TroopProgress, error) {
	snapshot, err := s.curriculum.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	lessons, err := s.lessons.List(ctx, models.LessonFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	byTroop := make(map[string][]models.Lesson)
	for _, lesson := range lessons {
		byTroop[lesson.TroopID] = append(byTroop[lesson.TroopID], lesson)
	}
	c := timetable.NewCurriculum(snapshot)
	result := make([]models.TroopProgress, 0, len(snapshot.Troops))
	for _, troop := range c.Troops() {
		result = append(result, troopProgress(c, troop, byTroop[troop.ID]))
	}
	return result, nil
}

// CourseLength lists lesson and self-study hours per discipline and term for a
// specialty. Terms without hours are left out.
func (s *StatisticsService) CourseLength(ctx context.Context, specialtyID string) ([]models.DisciplineCourseLength, error) {
	specialty, err := s.specialties.FindByID(ctx, specialtyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "specialty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load specialty")
	}

	key := "course-length:" + specialty.ID
	var cached []models.DisciplineCourseLength
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	snapshot, err := s.curriculum.Load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	c := timetable.NewCurriculum(snapshot)

	result := make([]models.DisciplineCourseLength, 0)
	for _, discipline := range c.Disciplines(specialty.ID) {
		entry := models.DisciplineCourseLength{
			DisciplineID: discipline.ID,
			Discipline:   discipline.FullName,
			Terms:        make([]models.TermCourseLength, 0),
		}
		for term := 1; term <= s.cfg.TermsCount; term++ {
			var length models.TermCourseLength
			for _, theme := range c.Themes(discipline.ID, term, specialty.ID) {
				length.Lessons += theme.Duration
				length.SelfEducation += theme.SelfEducationHours
			}
			if length.Lessons == 0 && length.SelfEducation == 0 {
				continue
			}
			length.Term = term
			entry.Terms = append(entry.Terms, length)
		}
		result = append(result, entry)
	}

	s.toCache(ctx, key, result)
	return result, nil
}

// troopProgress counts every lesson of the troop against the course length
// of its discipline at the troop term. A discipline with nothing to teach at
// the term counts as complete.
func troopProgress(c *timetable.Curriculum, troop models.Troop, lessons []models.Lesson) models.TroopProgress {
	hours := make(map[string]int)
	for _, lesson := range lessons {
		theme, ok := c.Theme(lesson.ThemeID)
		if !ok {
			continue
		}
		hours[theme.DisciplineID] += timetable.Span(lesson, theme)
	}

	result := models.TroopProgress{
		TroopID:       troop.ID,
		Code:          troop.Code,
		ByDisciplines: make([]models.DisciplineProgress, 0),
	}
	var sum float64
	for _, discipline := range c.Disciplines(troop.SpecialtyID) {
		progress := 1.0
		if length := c.CourseLength(discipline.ID, troop.Term, troop.SpecialtyID); length > 0 {
			progress = float64(hours[discipline.ID]) / float64(length)
		}
		sum += progress
		result.ByDisciplines = append(result.ByDisciplines, models.DisciplineProgress{
			DisciplineID: discipline.ID,
			Name:         discipline.ShortName,
			Progress:     progress,
		})
	}
	if len(result.ByDisciplines) > 0 {
		result.TotalProgress = sum / float64(len(result.ByDisciplines))
	}
	return result
}

func (s *StatisticsService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	s.metrics.RecordCacheLookup(err == nil)
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("statistics cache read", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

func (s *StatisticsService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("statistics cache write", zap.String("key", key), zap.Error(err))
	}
}
