// Package schedule runs the standing collection jobs on a cron
// timetable: the post-close daily run, the weekly registry refresh,
// the rolling news pull and its retention cleanup.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/internal/market/collector"
)

// Notifier receives the outcome of each scheduled run. The scheduler
// treats delivery as fire and forget.
type Notifier interface {
	NotifyTaskCompletion(ctx context.Context, task string, success bool, details map[string]string) bool
}

// HealthChecker is the storage liveness probe run on the hourly check.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// Scheduler owns the cron timetable and forwards each run's summary to
// the notifier. Jobs skip when their previous invocation is still
// running.
type Scheduler struct {
	runner   *collector.Runner
	notifier Notifier
	health   HealthChecker
	logger   *zap.Logger
	cron     *cron.Cron
}

func NewScheduler(runner *collector.Runner, notifier Notifier, health HealthChecker, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		notifier: notifier,
		health:   health,
		logger:   logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(zap.NewStdLog(logger))),
			cron.Recover(cron.VerbosePrintfLogger(zap.NewStdLog(logger))),
		)),
	}
}

// Start registers the timetable and launches the cron loop. It returns
// once the jobs are scheduled; Stop drains them.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		spec string
		name string
		run  func(context.Context)
	}{
		{"30 16 * * *", "daily collection", s.runDaily},
		{"0 2 * * 0", "weekly registry refresh", s.runWeekly},
		{"*/20 * * * *", "news collection", s.runNews},
		{"0 3 * * *", "news cleanup", s.runNewsCleanup},
		{"0 * * * *", "health check", s.runHealthCheck},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() { job.run(ctx) }); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		s.logger.Info("job scheduled",
			zap.String("job", job.name), zap.String("spec", job.spec))
	}

	s.cron.Start()
	s.logger.Info("scheduler started")
	return nil
}

// Stop halts the timetable and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runDaily(ctx context.Context) {
	s.logger.Info("daily collection starting")
	start := time.Now()
	results := s.runner.CollectToday(ctx, time.Now())
	s.report(ctx, "每日数据采集", results, time.Since(start))
}

func (s *Scheduler) runWeekly(ctx context.Context) {
	s.logger.Info("weekly registry refresh starting")
	start := time.Now()
	results := []collector.Result{s.runner.Basic.Collect(ctx)}
	s.report(ctx, "股票基础信息更新", results, time.Since(start))
}

func (s *Scheduler) runNews(ctx context.Context) {
	res := s.runner.News.Collect(ctx)
	if !res.Success() {
		s.logger.Warn("news collection failed", zap.Error(res.Err))
		return
	}
	s.logger.Info("news collection finished", zap.Int("rows", res.Rows))
}

func (s *Scheduler) runNewsCleanup(ctx context.Context) {
	deleted, err := s.runner.News.Cleanup(ctx, time.Now())
	if err != nil {
		s.logger.Error("news cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("news cleanup finished", zap.Int64("deleted", deleted))
}

func (s *Scheduler) runHealthCheck(ctx context.Context) {
	if s.health == nil {
		return
	}
	if !s.health.IsHealthy(ctx) {
		s.logger.Error("storage health check failed")
		return
	}
	s.logger.Info("storage health check passed")
}

// report logs the run outcome and forwards a per-task summary card.
func (s *Scheduler) report(ctx context.Context, task string, results []collector.Result, elapsed time.Duration) {
	failed := collector.Failed(results)
	details := map[string]string{
		"执行耗时": elapsed.Round(time.Second).String(),
	}
	totalRows := 0
	for _, res := range results {
		mark := "✅"
		if !res.Success() {
			mark = "❌"
		}
		details[res.Task] = fmt.Sprintf("%s %d行 (成功%d/失败%d)", mark, res.Rows, res.Succeeded, res.Failed)
		totalRows += res.Rows
	}
	details["更新记录"] = fmt.Sprintf("%d", totalRows)

	if failed {
		s.logger.Error("scheduled run finished with failures",
			zap.String("task", task), zap.Duration("elapsed", elapsed))
	} else {
		s.logger.Info("scheduled run finished",
			zap.String("task", task),
			zap.Int("rows", totalRows),
			zap.Duration("elapsed", elapsed))
	}

	if s.notifier != nil {
		s.notifier.NotifyTaskCompletion(ctx, task, !failed, details)
	}
}
