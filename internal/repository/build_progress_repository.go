package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

const (
	progressFieldJobID      = "job_id"
	progressFieldStatus     = "status"
	progressFieldCurrent    = "current_term_load"
	progressFieldTotal      = "total_term_load"
	progressFieldStartDate  = "start_date"
	progressFieldTermLength = "term_length"
	progressFieldStartedAt  = "started_at"
	progressFieldFinishedAt = "finished_at"
	progressFieldError      = "error"
)

// BuildProgressRepository keeps the state of the running timetable build in a
// Redis hash. Without a Redis client the state lives in process memory.
type BuildProgressRepository struct {
	client *redis.Client
	key    string
	logger *zap.Logger

	mu     sync.Mutex
	memory models.BuildProgress
}

// NewBuildProgressRepository constructs a progress store under key.
func NewBuildProgressRepository(client *redis.Client, key string, logger *zap.Logger) *BuildProgressRepository {
	if key == "" {
		key = "timetable:build"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildProgressRepository{
		client: client,
		key:    key,
		logger: logger,
		memory: models.BuildProgress{Status: models.BuildStatusIdle},
	}
}

// Get returns the stored progress; an empty store reports an idle build.
func (r *BuildProgressRepository) Get(ctx context.Context) (models.BuildProgress, error) {
	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.memory, nil
	}

	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return models.BuildProgress{}, fmt.Errorf("redis hgetall %s: %w", r.key, err)
	}
	if len(values) == 0 {
		return models.BuildProgress{Status: models.BuildStatusIdle}, nil
	}
	return decodeProgress(values), nil
}

// Save replaces the stored progress.
func (r *BuildProgressRepository) Save(ctx context.Context, progress models.BuildProgress) error {
	if r.client == nil {
		r.mu.Lock()
		r.memory = progress
		r.mu.Unlock()
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key)
	pipe.HSet(ctx, r.key, encodeProgress(progress))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save %s: %w", r.key, err)
	}
	r.logger.Debug("build progress saved", zap.String("key", r.key), zap.String("status", string(progress.Status)))
	return nil
}

// SetCurrentLoad updates the committed hours of the running build.
func (r *BuildProgressRepository) SetCurrentLoad(ctx context.Context, hours int) error {
	if r.client == nil {
		r.mu.Lock()
		r.memory.CurrentLoad = hours
		r.mu.Unlock()
		return nil
	}
	if err := r.client.HSet(ctx, r.key, progressFieldCurrent, hours).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", r.key, err)
	}
	return nil
}

func encodeProgress(p models.BuildProgress) map[string]interface{} {
	values := map[string]interface{}{
		progressFieldJobID:      p.JobID,
		progressFieldStatus:     string(p.Status),
		progressFieldCurrent:    p.CurrentLoad,
		progressFieldTotal:      p.TotalLoad,
		progressFieldStartDate:  p.StartDate,
		progressFieldTermLength: p.TermLength,
		progressFieldError:      p.ErrorMessage,
		progressFieldStartedAt:  "",
		progressFieldFinishedAt: "",
	}
	if p.StartedAt != nil {
		values[progressFieldStartedAt] = p.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	if p.FinishedAt != nil {
		values[progressFieldFinishedAt] = p.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	return values
}

func decodeProgress(values map[string]string) models.BuildProgress {
	p := models.BuildProgress{
		JobID:        values[progressFieldJobID],
		Status:       models.BuildStatus(values[progressFieldStatus]),
		StartDate:    values[progressFieldStartDate],
		ErrorMessage: values[progressFieldError],
	}
	if p.Status == "" {
		p.Status = models.BuildStatusIdle
	}
	p.CurrentLoad, _ = strconv.Atoi(values[progressFieldCurrent])
	p.TotalLoad, _ = strconv.Atoi(values[progressFieldTotal])
	p.TermLength, _ = strconv.Atoi(values[progressFieldTermLength])
	p.StartedAt = parseProgressTime(values[progressFieldStartedAt])
	p.FinishedAt = parseProgressTime(values[progressFieldFinishedAt])
	return p
}

func parseProgressTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil
	}
	return &t
}
