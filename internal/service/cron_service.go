package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronTask is one unit of scheduled work.
type CronTask func(ctx context.Context) error

// CronService runs named tasks on cron schedules in a fixed timezone.
type CronService struct {
	cron    *cron.Cron
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration
}

// NewCronService builds a scheduler. Overlapping runs of the same task are skipped.
func NewCronService(loc *time.Location, metrics *MetricsService, logger *zap.Logger) *CronService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	adapter := cronLogger{logger: logger.Sugar()}
	return &CronService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		metrics: metrics,
		logger:  logger,
		timeout: 5 * time.Minute,
	}
}

// Register schedules task under name. expr uses the standard five-field syntax or descriptors like @hourly.
func (s *CronService) Register(name, expr string, task CronTask) error {
	if _, err := s.cron.AddFunc(expr, func() { s.run(name, task) }); err != nil {
		return fmt.Errorf("register cron %s: %w", name, err)
	}
	s.logger.Info("cron task registered", zap.String("task", name), zap.String("expr", expr))
	return nil
}

// Start begins dispatching in the background.
func (s *CronService) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running tasks until ctx ends.
func (s *CronService) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("cron tasks still running at shutdown")
	}
}

func (s *CronService) run(name string, task CronTask) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := task(ctx)
	s.metrics.RecordCronRun(name, err)
	if err != nil {
		s.logger.Error("cron task failed", zap.String("task", name), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	s.logger.Debug("cron task finished", zap.String("task", name), zap.Duration("duration", time.Since(start)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
