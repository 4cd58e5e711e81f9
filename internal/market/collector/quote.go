package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// QuoteCollector pulls per-symbol daily bars. Incremental runs resume
// from the latest stored date per symbol instead of re-fetching history.
type QuoteCollector struct {
	deps Deps

	// HistoryDays is the fallback window for symbols with no stored
	// quotes yet.
	HistoryDays int
}

func NewQuoteCollector(deps Deps, historyDays int) *QuoteCollector {
	return &QuoteCollector{deps: deps, HistoryDays: historyDays}
}

// CollectStock fetches and stores one symbol's bars for [start, end].
// Returns the number of rows written. An empty result set is not an
// error: the symbol may simply have had no sessions in the window.
func (c *QuoteCollector) CollectStock(ctx context.Context, stockCode string, start, end time.Time) (int, error) {
	rows, err := fetch(ctx, c.deps, func(ctx context.Context) ([]postgres.DailyQuote, error) {
		return c.deps.Source.DailyQuotes(ctx, stockCode, start, end)
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := c.deps.Store.UpsertDailyQuotes(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CollectHistory backfills every registered symbol over [start, end].
// One symbol is one unit of work: its fetch failure is logged, counted
// and skipped, and the run moves on.
func (c *QuoteCollector) CollectHistory(ctx context.Context, start, end time.Time) Result {
	res := Result{Task: "daily_quote_history"}
	log := c.deps.Logger

	codes, err := c.deps.Store.StockCodes(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	if len(codes) == 0 {
		log.Error("symbol registry is empty, nothing to backfill")
		res.Err = ErrPrerequisiteMissing
		return res
	}

	for i, code := range codes {
		if err := c.deps.Pacer.Wait(ctx); err != nil {
			res.Err = err
			return res
		}

		res.Attempted++
		written, err := c.CollectStock(ctx, code, start, end)
		if err != nil {
			log.Warn("skipping symbol after fetch failure",
				zap.String("stock_code", code), zap.Error(err))
			res.Failed++
			continue
		}
		res.Succeeded++
		res.Rows += written

		if (i+1)%100 == 0 {
			log.Info("backfill progress",
				zap.Int("processed", i+1),
				zap.Int("total", len(codes)),
				zap.Int("succeeded", res.Succeeded))
		}
	}

	log.Info("quote backfill finished",
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed))
	return res
}

// CollectLatest runs the incremental daily update: for each symbol the
// fetch window is latest stored date + 1 day through today, or the
// configured fallback window when nothing is stored yet. Skips cleanly
// on non-trading days.
func (c *QuoteCollector) CollectLatest(ctx context.Context, today time.Time) Result {
	res := Result{Task: "daily_quote_latest"}
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

	codes, err := c.deps.Store.StockCodes(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	if len(codes) == 0 {
		res.Err = ErrPrerequisiteMissing
		return res
	}

	for _, code := range codes {
		start, err := c.resumeFrom(ctx, code, today)
		if err != nil {
			log.Warn("resume lookup failed", zap.String("stock_code", code), zap.Error(err))
			res.Attempted++
			res.Failed++
			continue
		}
		if start.After(today) {
			// Already up to date; no unit of work for this symbol.
			continue
		}

		if err := c.deps.Pacer.Wait(ctx); err != nil {
			res.Err = err
			return res
		}

		res.Attempted++
		written, err := c.CollectStock(ctx, code, start, today)
		if err != nil {
			log.Warn("skipping symbol after fetch failure",
				zap.String("stock_code", code), zap.Error(err))
			res.Failed++
			continue
		}
		res.Succeeded++
		res.Rows += written
	}

	log.Info("incremental quote update finished",
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Int("rows", res.Rows))
	return res
}

// resumeFrom computes the minimal fetch window start for one symbol.
func (c *QuoteCollector) resumeFrom(ctx context.Context, stockCode string, today time.Time) (time.Time, error) {
	latest, found, err := c.deps.Store.LatestQuoteDate(ctx, stockCode)
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		return today.AddDate(0, 0, -c.HistoryDays), nil
	}
	return dateOnly(latest).AddDate(0, 0, 1), nil
}
