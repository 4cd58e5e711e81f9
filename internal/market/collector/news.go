package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// NewsCollector pulls the latest market news batch. Identity is the
// article URL; runs are capped at MaxProcess items. It also owns the
// retention cleanup, the one delete path in the system.
type NewsCollector struct {
	deps Deps

	MaxProcess    int
	RetentionDays int
}

func NewNewsCollector(deps Deps, maxProcess, retentionDays int) *NewsCollector {
	return &NewsCollector{deps: deps, MaxProcess: maxProcess, RetentionDays: retentionDays}
}

func (c *NewsCollector) Collect(ctx context.Context) Result {
	res := Result{Task: "stock_news", Attempted: 1}
	log := c.deps.Logger

	rows, err := fetch(ctx, c.deps, func(ctx context.Context) ([]postgres.StockNews, error) {
		return c.deps.Source.News(ctx)
	})
	if err != nil {
		log.Error("failed to fetch news", zap.Error(err))
		res.Failed = 1
		return res
	}

	// The feed is most-recent-first; the cap truncates the tail.
	if c.MaxProcess > 0 && len(rows) > c.MaxProcess {
		rows = rows[:c.MaxProcess]
	}

	if err := c.deps.Store.UpsertNews(ctx, rows); err != nil {
		log.Error("failed to upsert news", zap.Error(err))
		res.Failed = 1
		res.Err = err
		return res
	}

	res.Succeeded = 1
	res.Rows = len(rows)
	log.Info("news stored", zap.Int("rows", len(rows)))
	return res
}

// Cleanup deletes news older than the retention window.
func (c *NewsCollector) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -c.RetentionDays)
	deleted, err := c.deps.Store.DeleteNewsBefore(ctx, cutoff)
	if err != nil {
		c.deps.Logger.Error("news cleanup failed", zap.Error(err))
		return 0, err
	}
	if deleted > 0 {
		c.deps.Logger.Info("purged old news",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}

// NewsStats summarizes the stored news table.
type NewsStats struct {
	Total  int64
	Latest time.Time
}

func (c *NewsCollector) Stats(ctx context.Context) (NewsStats, error) {
	total, err := c.deps.Store.CountNews(ctx)
	if err != nil {
		return NewsStats{}, err
	}

	stats := NewsStats{Total: total}
	recent, err := c.deps.Store.RecentNews(ctx, 1, 0)
	if err != nil {
		return NewsStats{}, err
	}
	if len(recent) > 0 {
		stats.Latest = recent[0].PublishTime
	}
	return stats, nil
}
