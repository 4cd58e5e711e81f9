package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// HsgtFlowCollector snapshots the cross-border (HSGT) fund-flow
// summary. The feed reports its own trade dates, so no stamping needed.
type HsgtFlowCollector struct {
	deps Deps
}

func NewHsgtFlowCollector(deps Deps) *HsgtFlowCollector {
	return &HsgtFlowCollector{deps: deps}
}

func (c *HsgtFlowCollector) Collect(ctx context.Context, today time.Time) Result {
	res := Result{Task: "hsgt_flow"}
	log := c.deps.Logger

	skip, err := gateTradingDay(ctx, c.deps, dateOnly(today))
	if err != nil {
		res.Err = err
		return res
	}
	if skip {
		return res
	}

	res.Attempted = 1
	rows, err := fetch(ctx, c.deps, func(ctx context.Context) ([]postgres.HsgtFlow, error) {
		return c.deps.Source.HsgtFlows(ctx)
	})
	if err != nil {
		log.Error("failed to fetch cross-border fund flow", zap.Error(err))
		res.Failed = 1
		return res
	}

	if err := c.deps.Store.UpsertHsgtFlows(ctx, rows); err != nil {
		log.Error("failed to upsert cross-border fund flow", zap.Error(err))
		res.Failed = 1
		res.Err = err
		return res
	}

	res.Succeeded = 1
	res.Rows = len(rows)
	log.Info("cross-border fund flow stored", zap.Int("rows", len(rows)))
	return res
}

// IndicatorPeriods are the fund-flow ranking windows collected each run.
var IndicatorPeriods = []string{"今日", "3日", "5日", "10日"}

// FundFlowRankCollector pulls the per-symbol fund-flow ranking for each
// indicator period. One period is one unit of work. This feed is the
// known duplicate emitter; the upsert path's dedup handles it.
type FundFlowRankCollector struct {
	deps    Deps
	Periods []string
}

func NewFundFlowRankCollector(deps Deps, periods []string) *FundFlowRankCollector {
	if len(periods) == 0 {
		periods = IndicatorPeriods
	}
	return &FundFlowRankCollector{deps: deps, Periods: periods}
}

func (c *FundFlowRankCollector) Collect(ctx context.Context, today time.Time) Result {
	res := Result{Task: "fund_flow_rank"}
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

	for _, period := range c.Periods {
		if err := c.deps.Pacer.Wait(ctx); err != nil {
			res.Err = err
			return res
		}

		res.Attempted++
		rows, err := fetch(ctx, c.deps, func(ctx context.Context) ([]postgres.FundFlowRank, error) {
			return c.deps.Source.FundFlowRanks(ctx, period, today)
		})
		if err != nil {
			log.Warn("skipping fund flow period after fetch failure",
				zap.String("period", period), zap.Error(err))
			res.Failed++
			continue
		}

		if err := c.deps.Store.UpsertFundFlowRanks(ctx, rows); err != nil {
			log.Error("failed to upsert fund flow ranking",
				zap.String("period", period), zap.Error(err))
			res.Failed++
			continue
		}
		res.Succeeded++
		res.Rows += len(rows)
	}

	log.Info("fund flow ranking finished",
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed))
	return res
}
