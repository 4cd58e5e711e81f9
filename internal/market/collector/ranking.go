package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// HotRankCollector snapshots the daily popularity ranking. Slots are
// keyed (trade_date, rank_position); the symbol is payload, not key.
type HotRankCollector struct {
	deps Deps
}

func NewHotRankCollector(deps Deps) *HotRankCollector {
	return &HotRankCollector{deps: deps}
}

func (c *HotRankCollector) Collect(ctx context.Context, today time.Time) Result {
	res := Result{Task: "hot_rank"}
	log := c.deps.Logger
	today = dateOnly(today)

	skip, err := gateTradingDay(ctx, c.deps, today)
	if err != nil {
		res.Err = err
		return res
	}
	if skip {
		return res
	}

	res.Attempted = 1
	rows, err := fetch(ctx, c.deps, func(ctx context.Context) ([]postgres.HotRank, error) {
		return c.deps.Source.HotRanks(ctx, today)
	})
	if err != nil {
		log.Error("failed to fetch popularity ranking", zap.Error(err))
		res.Failed = 1
		return res
	}

	if err := c.deps.Store.UpsertHotRanks(ctx, rows); err != nil {
		log.Error("failed to upsert popularity ranking", zap.Error(err))
		res.Failed = 1
		res.Err = err
		return res
	}

	res.Succeeded = 1
	res.Rows = len(rows)
	log.Info("popularity ranking stored", zap.Int("rows", len(rows)))
	return res
}

// RiseRankCollector snapshots the rising-popularity ranking, which
// additionally carries each slot's delta against yesterday.
type RiseRankCollector struct {
	deps Deps
}

func NewRiseRankCollector(deps Deps) *RiseRankCollector {
	return &RiseRankCollector{deps: deps}
}

func (c *RiseRankCollector) Collect(ctx context.Context, today time.Time) Result {
	res := Result{Task: "rise_rank"}
	log := c.deps.Logger
	today = dateOnly(today)

	skip, err := gateTradingDay(ctx, c.deps, today)
	if err != nil {
		res.Err = err
		return res
	}
	if skip {
		return res
	}

	res.Attempted = 1
	rows, err := fetch(ctx, c.deps, func(ctx context.Context) ([]postgres.RiseRank, error) {
		return c.deps.Source.RiseRanks(ctx, today)
	})
	if err != nil {
		log.Error("failed to fetch rising ranking", zap.Error(err))
		res.Failed = 1
		return res
	}

	if err := c.deps.Store.UpsertRiseRanks(ctx, rows); err != nil {
		log.Error("failed to upsert rising ranking", zap.Error(err))
		res.Failed = 1
		res.Err = err
		return res
	}

	res.Succeeded = 1
	res.Rows = len(rows)
	log.Info("rising ranking stored", zap.Int("rows", len(rows)))
	return res
}
