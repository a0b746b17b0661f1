package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/troop-timetable-api/api/swagger"
	"github.com/noah-isme/troop-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/troop-timetable-api/internal/middleware"
	"github.com/noah-isme/troop-timetable-api/internal/models"
	"github.com/noah-isme/troop-timetable-api/internal/repository"
	"github.com/noah-isme/troop-timetable-api/internal/service"
	"github.com/noah-isme/troop-timetable-api/internal/timetable"
	"github.com/noah-isme/troop-timetable-api/pkg/cache"
	"github.com/noah-isme/troop-timetable-api/pkg/config"
	"github.com/noah-isme/troop-timetable-api/pkg/database"
	"github.com/noah-isme/troop-timetable-api/pkg/jobs"
	"github.com/noah-isme/troop-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/troop-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/troop-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/troop-timetable-api/pkg/storage"
)

// @title Troop Timetable API
// @version 1.0.0
// @description Builds weekly troop timetables from the curriculum and reports load and progress statistics.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const exportCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, build progress kept in memory", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	troopRepo := repository.NewTroopRepository(db)
	specialtyRepo := repository.NewSpecialtyRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	progressRepo := repository.NewBuildProgressRepository(redisClient, cfg.Timetable.ProgressKey, logr)
	statsCache := repository.NewCacheRepository(redisClient, "timetable:stats", logr)

	curriculum := service.NewCurriculumLoader(
		troopRepo,
		repository.NewDisciplineRepository(db),
		repository.NewThemeRepository(db),
		repository.NewTeacherRepository(db),
		repository.NewAudienceRepository(db),
	)

	buildSvc := service.NewTimetableBuildService(curriculum, lessonRepo, progressRepo, statsCache, metricsSvc, validate, logr, service.TimetableBuildConfig{
		LessonHours:        cfg.Timetable.LessonHours,
		SelfEducationHours: cfg.Timetable.SelfEducationHours,
		MaxTermWeeks:       cfg.Timetable.MaxTermWeeks,
		Order:              orderPolicy(cfg.Timetable),
	})
	if err := buildSvc.RecoverStale(ctx); err != nil {
		logr.Warn("recover stale build status", zap.Error(err))
	}
	buildQueue := jobs.NewQueue("timetable", buildSvc.HandleJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.Jobs.BufferSize,
		OnFailure:  buildSvc.OnJobFailure,
		Logger:     logr,
	})
	buildQueue.Start(ctx)
	defer buildQueue.Stop()
	buildSvc.AttachQueue(buildQueue)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("init export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(curriculum, lessonRepo, exportStore, signer, validate, logr, service.ExportConfig{
		APIPrefix:          cfg.APIPrefix,
		LessonHours:        cfg.Timetable.LessonHours,
		SelfEducationHours: cfg.Timetable.SelfEducationHours,
	})
	go runExportCleanup(ctx, exportSvc, logr)

	statsSvc := service.NewStatisticsService(curriculum, specialtyRepo, lessonRepo, statsCache, metricsSvc, validate, logr, service.StatisticsConfig{
		TermsCount: cfg.Timetable.TermsCount,
	})

	timetableHandler := handler.NewTimetableHandler(buildSvc, exportSvc)
	statisticsHandler := handler.NewStatisticsHandler(statsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db.PingContext, redisClient))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/exports/:token", timetableHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(internalmiddleware.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer)))
	secured.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	secured.POST("/schedule", timetableHandler.Build)
	secured.GET("/schedule", timetableHandler.Status)
	secured.POST("/schedule/exports", timetableHandler.Export)

	secured.GET("/statistics/teachers-load", statisticsHandler.TeachersLoad)
	secured.GET("/statistics/troops", statisticsHandler.TroopsProgress)
	secured.GET("/statistics/troops/:id", statisticsHandler.TroopProgress)
	secured.GET("/specialties/:id/course-length", statisticsHandler.CourseLength)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "troop_order", cfg.Timetable.TroopOrder)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func orderPolicy(cfg config.TimetableConfig) timetable.OrderPolicy {
	if cfg.TroopOrder != config.TroopOrderRandomized {
		return timetable.Deterministic{}
	}
	seed := cfg.TroopOrderSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return timetable.Randomized{Seed: seed}
}

func readinessChecks(pingDB handler.Pinger, redisClient *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"postgres": pingDB}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, logr *zap.Logger) {
	ticker := time.NewTicker(exportCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := exports.CleanupExpired(ctx); err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
			}
		}
	}
}
