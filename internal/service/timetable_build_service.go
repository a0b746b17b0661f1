package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/troop-timetable-api/internal/dto"
	"github.com/noah-isme/troop-timetable-api/internal/models"
	"github.com/noah-isme/troop-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
	"github.com/noah-isme/troop-timetable-api/pkg/jobs"
	"github.com/noah-isme/troop-timetable-api/pkg/logger"
)

// JobTypeTimetableBuild identifies build jobs on the queue.
const JobTypeTimetableBuild = "timetable.build"

type curriculumSource interface {
	Load(ctx context.Context) (timetable.Snapshot, error)
}

type lessonStore interface {
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	DeleteAll(ctx context.Context) (int64, error)
}

type progressStore interface {
	Get(ctx context.Context) (models.BuildProgress, error)
	Save(ctx context.Context, progress models.BuildProgress) error
	SetCurrentLoad(ctx context.Context, hours int) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type statisticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Flush(ctx context.Context) error
}

// TimetableBuildConfig carries the engine settings of every build.
type TimetableBuildConfig struct {
	LessonHours        int
	SelfEducationHours int
	MaxTermWeeks       int
	Order              timetable.OrderPolicy
}

type buildPayload struct {
	Start    time.Time
	Weeks    int
	Snapshot timetable.Snapshot
}

// TimetableBuildService resets the lesson set and runs the scheduling engine on
// a background worker, one build at a time.
type TimetableBuildService struct {
	curriculum curriculumSource
	lessons    lessonStore
	progress   progressStore
	cache      statisticsCache
	queue      jobEnqueuer
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableBuildConfig
	now        func() time.Time

	mu       sync.Mutex
	ownedJob string
}

// NewTimetableBuildService wires build dependencies. The queue is attached
// later with AttachQueue because the queue handler is the service itself.
func NewTimetableBuildService(
	curriculum curriculumSource,
	lessons lessonStore,
	progress progressStore,
	cache statisticsCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableBuildConfig,
) *TimetableBuildService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Order == nil {
		cfg.Order = timetable.Deterministic{}
	}
	return &TimetableBuildService{
		curriculum: curriculum,
		lessons:    lessons,
		progress:   progress,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// AttachQueue sets the queue build jobs are dispatched to.
func (s *TimetableBuildService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// RecoverStale fails a queued or running build left behind by a previous
// process. Jobs live in process memory, so such a build can never finish and
// would otherwise block every new build.
func (s *TimetableBuildService) RecoverStale(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress, err := s.progress.Get(ctx)
	if err != nil {
		return fmt.Errorf("read build status: %w", err)
	}
	if !progress.Status.Active() || progress.JobID == s.ownedJob {
		return nil
	}

	finished := s.now().UTC()
	s.logger.Warn("failing stale timetable build", zap.String("job_id", progress.JobID), zap.String("status", string(progress.Status)))
	progress.Status = models.BuildStatusFailed
	progress.FinishedAt = &finished
	progress.ErrorMessage = "worker restarted"
	if err := s.progress.Save(ctx, progress); err != nil {
		return fmt.Errorf("store build status: %w", err)
	}
	return nil
}

// StartBuild deletes every lesson, resets progress and enqueues a build.
func (s *TimetableBuildService) StartBuild(ctx context.Context, req dto.BuildTimetableRequest) (models.BuildProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.BuildProgress{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid build request")
	}
	if s.cfg.MaxTermWeeks > 0 && req.TermLength > s.cfg.MaxTermWeeks {
		return models.BuildProgress{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("term_length must not exceed %d weeks", s.cfg.MaxTermWeeks))
	}
	start, err := time.ParseInLocation(dto.DateLayout, req.StartDate, time.UTC)
	if err != nil {
		return models.BuildProgress{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	if s.cfg.LessonHours <= 0 || s.cfg.SelfEducationHours < 0 {
		return models.BuildProgress{}, appErrors.Clone(appErrors.ErrConfiguration, "lesson hours must be positive")
	}
	if s.queue == nil {
		return models.BuildProgress{}, appErrors.Clone(appErrors.ErrInternal, "build queue not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.progress.Get(ctx)
	if err != nil {
		return models.BuildProgress{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read build status")
	}
	if current.Status.Active() {
		return current, appErrors.ErrBuildInProgress
	}

	snapshot, err := s.curriculum.Load(ctx)
	if err != nil {
		return models.BuildProgress{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}

	removed, err := s.lessons.DeleteAll(ctx)
	if err != nil {
		return models.BuildProgress{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset lessons")
	}
	s.invalidateStatistics(ctx)

	progress := models.BuildProgress{
		JobID:       uuid.NewString(),
		Status:      models.BuildStatusQueued,
		CurrentLoad: 0,
		TotalLoad:   timetable.NewCurriculum(snapshot).TotalLoad(),
		StartDate:   start.Format(dto.DateLayout),
		TermLength:  req.TermLength,
	}
	if err := s.progress.Save(ctx, progress); err != nil {
		return models.BuildProgress{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store build status")
	}

	job := jobs.Job{
		ID:      progress.JobID,
		Type:    JobTypeTimetableBuild,
		Payload: buildPayload{Start: start, Weeks: req.TermLength, Snapshot: snapshot},
	}
	s.ownedJob = job.ID
	if err := s.queue.Enqueue(job); err != nil {
		s.ownedJob = ""
		progress.Status = models.BuildStatusFailed
		progress.ErrorMessage = err.Error()
		if saveErr := s.progress.Save(ctx, progress); saveErr != nil {
			s.logger.Warn("store failed build status", zap.String("job_id", job.ID), zap.Error(saveErr))
		}
		return progress, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue build")
	}

	s.logger.Info("timetable build queued",
		zap.String("job_id", job.ID),
		zap.String("start_date", progress.StartDate),
		zap.Int("term_length", progress.TermLength),
		zap.Int("total_load", progress.TotalLoad),
		zap.Int64("lessons_removed", removed),
	)
	return progress, nil
}

// Status returns the progress of the current or last build.
func (s *TimetableBuildService) Status(ctx context.Context) (models.BuildProgress, error) {
	progress, err := s.progress.Get(ctx)
	if err != nil {
		return models.BuildProgress{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read build status")
	}
	return progress, nil
}

// HandleJob runs a queued build. It is the queue handler.
func (s *TimetableBuildService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(buildPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	log := logger.ForBuild(s.logger, job.ID)
	// status writes outlive a shutdown so the outcome is always recorded
	store := context.WithoutCancel(ctx)

	started := s.now().UTC()
	progress, err := s.progress.Get(store)
	if err != nil {
		s.finish(store, job.ID, started, timetable.Result{}, err)
		return fmt.Errorf("read build status: %w", err)
	}
	progress.JobID = job.ID
	progress.Status = models.BuildStatusProcessing
	progress.StartedAt = &started
	progress.FinishedAt = nil
	progress.ErrorMessage = ""
	if err := s.progress.Save(store, progress); err != nil {
		s.finish(store, job.ID, started, timetable.Result{}, err)
		return fmt.Errorf("store build status: %w", err)
	}
	log.Info("timetable build started", zap.Int("troops", len(payload.Snapshot.Troops)), zap.Int("themes", len(payload.Snapshot.Themes)))

	engine := timetable.NewEngine(
		timetable.NewCurriculum(payload.Snapshot),
		s.lessons,
		s.progress,
		timetable.Config{LessonHours: s.cfg.LessonHours, SelfEducationHours: s.cfg.SelfEducationHours, Order: s.cfg.Order},
		log,
	)
	result, buildErr := engine.Build(ctx, payload.Start, payload.Weeks)
	s.finish(store, job.ID, started, result, buildErr)
	if buildErr != nil {
		return buildErr
	}

	log.Info("timetable build finished",
		zap.Int("lessons", result.Lessons),
		zap.Int("self_study_lessons", result.SelfStudyLessons),
		zap.Int("understaffed", result.Understaffed),
		zap.Int("committed_hours", result.CommittedHours),
		zap.Duration("elapsed", s.now().UTC().Sub(started)),
	)
	return nil
}

// OnJobFailure marks a build failed when its job died before recording an
// outcome, for example after a panic.
func (s *TimetableBuildService) OnJobFailure(job jobs.Job, err error) {
	ctx := context.Background()
	progress, getErr := s.progress.Get(ctx)
	if getErr != nil {
		s.logger.Error("read build status after failure", zap.String("job_id", job.ID), zap.Error(getErr))
		return
	}
	if progress.JobID != job.ID || !progress.Status.Active() {
		return
	}
	s.finish(ctx, job.ID, s.now().UTC(), timetable.Result{}, err)
}

func (s *TimetableBuildService) finish(ctx context.Context, jobID string, started time.Time, result timetable.Result, buildErr error) {
	progress, err := s.progress.Get(ctx)
	if err != nil {
		s.logger.Error("read build status", zap.String("job_id", jobID), zap.Error(err))
		progress = models.BuildProgress{JobID: jobID}
	}
	finished := s.now().UTC()
	progress.FinishedAt = &finished
	progress.Status = models.BuildStatusFinished
	progress.ErrorMessage = ""
	if buildErr != nil {
		progress.Status = models.BuildStatusFailed
		progress.ErrorMessage = buildErr.Error()
		s.logger.Error("timetable build failed", zap.String("job_id", jobID), zap.Error(buildErr))
	}
	if err := s.progress.Save(ctx, progress); err != nil {
		s.logger.Error("store build status", zap.String("job_id", jobID), zap.Error(err))
	}
	s.invalidateStatistics(ctx)

	s.mu.Lock()
	if s.ownedJob == jobID {
		s.ownedJob = ""
	}
	s.mu.Unlock()

	s.metrics.ObserveBuild(progress.Status, finished.Sub(started), result, progress.Ratio())
}

func (s *TimetableBuildService) invalidateStatistics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Flush(ctx); err != nil {
		s.logger.Warn("flush statistics cache", zap.Error(err))
	}
}
