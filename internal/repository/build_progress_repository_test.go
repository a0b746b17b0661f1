package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/troop-timetable-api/internal/models"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
)

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestBuildProgressRepositoryRedisRoundTrip(t *testing.T) {
	client, srv := newRedisClient(t)
	repo := NewBuildProgressRepository(client, "test:build", nil)
	ctx := context.Background()

	idle, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BuildStatusIdle, idle.Status)

	started := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, models.BuildProgress{
		JobID:      "job-1",
		Status:     models.BuildStatusProcessing,
		TotalLoad:  120,
		StartDate:  "2024-09-02",
		TermLength: 16,
		StartedAt:  &started,
	}))
	require.NoError(t, repo.SetCurrentLoad(ctx, 30))

	assert.Equal(t, "30", srv.HGet("test:build", "current_term_load"))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, models.BuildStatusProcessing, got.Status)
	assert.Equal(t, 30, got.CurrentLoad)
	assert.Equal(t, 120, got.TotalLoad)
	assert.Equal(t, 16, got.TermLength)
	require.NotNil(t, got.StartedAt)
	assert.True(t, started.Equal(*got.StartedAt))
	assert.Nil(t, got.FinishedAt)
	assert.InDelta(t, 0.25, got.Ratio(), 1e-9)
}

func TestBuildProgressRepositorySaveReplacesPreviousState(t *testing.T) {
	client, _ := newRedisClient(t)
	repo := NewBuildProgressRepository(client, "", nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, models.BuildProgress{Status: models.BuildStatusFailed, ErrorMessage: "boom"}))
	require.NoError(t, repo.Save(ctx, models.BuildProgress{Status: models.BuildStatusQueued, JobID: "job-2"}))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BuildStatusQueued, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestBuildProgressRepositoryMemoryFallback(t *testing.T) {
	repo := NewBuildProgressRepository(nil, "", nil)
	ctx := context.Background()

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BuildStatusIdle, got.Status)

	require.NoError(t, repo.Save(ctx, models.BuildProgress{Status: models.BuildStatusProcessing, TotalLoad: 10}))
	require.NoError(t, repo.SetCurrentLoad(ctx, 4))

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentLoad)
	assert.Equal(t, 10, got.TotalLoad)
}

func TestCacheRepositoryGetSetFlush(t *testing.T) {
	client, srv := newRedisClient(t)
	repo := NewCacheRepository(client, "stats", nil)
	ctx := context.Background()

	var miss []int
	assert.ErrorIs(t, repo.Get(ctx, "course:sp-1", &miss), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "course:sp-1", []int{1, 2, 3}, time.Minute))
	require.NoError(t, repo.Set(ctx, "troop:tr-1", map[string]float64{"total": 0.5}, time.Minute))
	require.NoError(t, client.Set(ctx, "other:key", "keep", 0).Err())
	assert.True(t, srv.Exists("stats:course:sp-1"))

	var got []int
	require.NoError(t, repo.Get(ctx, "course:sp-1", &got))
	assert.Equal(t, []int{1, 2, 3}, got)

	require.NoError(t, repo.Flush(ctx))
	assert.False(t, srv.Exists("stats:course:sp-1"))
	assert.False(t, srv.Exists("stats:troop:tr-1"))
	assert.True(t, srv.Exists("other:key"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "stats", nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.ErrorIs(t, repo.Get(ctx, "k", &v), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Flush(ctx))
}
