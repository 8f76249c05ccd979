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
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-compass-api/api/swagger"
	"github.com/noah-isme/course-compass-api/internal/handler"
	"github.com/noah-isme/course-compass-api/internal/repository"
	"github.com/noah-isme/course-compass-api/internal/service"
	"github.com/noah-isme/course-compass-api/pkg/cache"
	"github.com/noah-isme/course-compass-api/pkg/config"
	"github.com/noah-isme/course-compass-api/pkg/database"
	"github.com/noah-isme/course-compass-api/pkg/jobs"
	"github.com/noah-isme/course-compass-api/pkg/logger"
	"github.com/noah-isme/course-compass-api/pkg/storage"
)

// @title Course Compass API
// @version 1.0.0
// @description Role-based course dashboard: schedules, coursework, grades and notifications.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)
	validate := validator.New()
	loc := cfg.Schedule.Location()

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	schedules := repository.NewScheduleRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	grades := repository.NewGradeRepository(db)
	notifications := repository.NewNotificationRepository(db)
	stats := repository.NewStatsRepository(db)

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	profileSvc := service.NewProfileService(users, cacheSvc, validate, logr)
	courseSvc := service.NewCourseService(courses, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollments, courses, cacheSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(service.ScheduleServiceParams{
		Repo:        schedules,
		Enrollments: enrollments,
		Courses:     courses,
		Cache:       cacheSvc,
		Validator:   validate,
		Logger:      logr,
		Config:      service.ScheduleServiceConfig{Location: loc, CacheTTL: cfg.Schedule.CacheTTL},
	})

	notificationSvc := service.NewNotificationService(notifications, enrollments, logr)
	notifyQueue := jobs.NewQueue("notifications", notificationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.Retries,
		Logger:     logr,
		Observer: func(job jobs.Job, err error) {
			metrics.RecordJob("notifications", job.Type, err)
		},
	})
	notificationSvc.UseQueue(notifyQueue)
	// Not tied to the signal context: it drains after the server stops accepting requests.
	notifyQueue.Start(context.Background())
	defer notifyQueue.Stop()

	assignmentSvc := service.NewAssignmentService(assignments, courses, enrollments, notificationSvc, validate, logr)
	submissionSvc := service.NewSubmissionService(service.SubmissionServiceParams{
		Repo:        submissions,
		Assignments: assignments,
		Courses:     courses,
		Enrollments: enrollments,
		Notifier:    notificationSvc,
		Cache:       cacheSvc,
		Validator:   validate,
		Logger:      logr,
	})
	gradeSvc := service.NewGradeService(grades, courses, enrollments, cacheSvc, validate, logr)

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return fmt.Errorf("init report storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(gradeSvc, reportStore, signer, cfg.APIPrefix+"/reports/download", logr)

	provider, err := dashboardProvider(cfg, stats, assignments, grades, scheduleSvc)
	if err != nil {
		return err
	}
	logr.Info("dashboard provider selected", zap.String("source", provider.Name()))
	dashboardSvc := service.NewDashboardService(provider, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
		Location: loc,
		Metrics:  metrics,
	})

	scheduler := service.NewCronService(loc, metrics, logr)
	if cfg.Reminders.Enabled {
		reminders := service.NewReminderService(enrollments, scheduleSvc, notificationSvc, loc, logr)
		if err := scheduler.Register(service.CronTaskClassReminder, cfg.Reminders.Cron, reminders.Task()); err != nil {
			return err
		}
	}
	if cfg.Reports.CleanupCron != "" {
		if err := scheduler.Register(service.CronTaskReportCleanup, cfg.Reports.CleanupCron, reportSvc.Task()); err != nil {
			return err
		}
	}
	scheduler.Start()

	router := handler.NewRouter(handler.RouterDeps{
		Logger:         logr,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,

		Tokens:   authSvc,
		Observer: metrics,
		Audit:    users,

		Auth:          handler.NewAuthHandler(authSvc),
		Profile:       handler.NewProfileHandler(profileSvc),
		Courses:       handler.NewCourseHandler(courseSvc, enrollmentSvc),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Schedules:     handler.NewScheduleHandler(scheduleSvc),
		Assignments:   handler.NewAssignmentHandler(assignmentSvc, submissionSvc),
		Grades:        handler.NewGradeHandler(gradeSvc, reportSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Metrics:       handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := notifyQueue.Shutdown(shutdownCtx); err != nil {
		logr.Warn("notification queue did not drain", zap.Error(err))
	}
	logr.Info("server stopped")
	return nil
}

func dashboardProvider(cfg *config.Config, stats *repository.StatsRepository, assignments *repository.AssignmentRepository, grades *repository.GradeRepository, schedules *service.ScheduleService) (service.DashboardProvider, error) {
	if cfg.Dashboard.Source == config.DashboardSourceFixtures {
		provider, err := service.LoadFixtureDashboardProvider(cfg.Dashboard.FixturesPath)
		if err != nil {
			return nil, fmt.Errorf("load dashboard fixtures: %w", err)
		}
		return provider, nil
	}
	return service.NewLiveDashboardProvider(stats, assignments, grades, schedules), nil
}
