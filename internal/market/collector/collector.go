// Package collector implements the per-dataset collection pipelines:
// determine scope, fetch with retry and pacing, clean, dedupe, upsert,
// report. Collectors are plain values constructed with their store and
// source dependencies; there is no package-level registry.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/pacing"
	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// ErrPrerequisiteMissing marks a run whose required prior state (the
// trading calendar for the requested date) is absent. No safe partial
// result exists, so the run aborts immediately.
var ErrPrerequisiteMissing = errors.New("prerequisite missing")

// Store is the storage capability collectors write through. Implemented
// by postgres.Client and by postgres.MemoryStore in tests.
type Store interface {
	UpsertStockBasics(ctx context.Context, rows []postgres.StockBasic) error
	UpsertDailyQuotes(ctx context.Context, rows []postgres.DailyQuote) error
	UpsertIndexDailies(ctx context.Context, rows []postgres.IndexDaily) error
	UpsertTradeCalendar(ctx context.Context, rows []postgres.TradeCalendar) error
	UpsertHotRanks(ctx context.Context, rows []postgres.HotRank) error
	UpsertRiseRanks(ctx context.Context, rows []postgres.RiseRank) error
	UpsertHsgtFlows(ctx context.Context, rows []postgres.HsgtFlow) error
	UpsertFundFlowRanks(ctx context.Context, rows []postgres.FundFlowRank) error
	UpsertNews(ctx context.Context, rows []postgres.StockNews) error

	StockCodes(ctx context.Context) ([]string, error)
	LatestQuoteDate(ctx context.Context, stockCode string) (time.Time, bool, error)
	LatestIndexDate(ctx context.Context, indexCode string) (time.Time, bool, error)
	IsTradingDay(ctx context.Context, date time.Time) (trading bool, known bool, err error)

	DeleteNewsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountNews(ctx context.Context) (int64, error)
	RecentNews(ctx context.Context, limit, offset int) ([]postgres.StockNews, error)
}

// Source is the fetch capability against the external data gateway.
// Implemented by akshare.Client.
type Source interface {
	StockBasics(ctx context.Context) ([]postgres.StockBasic, error)
	DailyQuotes(ctx context.Context, stockCode string, start, end time.Time) ([]postgres.DailyQuote, error)
	IndexDaily(ctx context.Context, indexCode, indexName string) ([]postgres.IndexDaily, error)
	TradeDates(ctx context.Context) ([]time.Time, error)
	HotRanks(ctx context.Context, tradeDate time.Time) ([]postgres.HotRank, error)
	RiseRanks(ctx context.Context, tradeDate time.Time) ([]postgres.RiseRank, error)
	HsgtFlows(ctx context.Context) ([]postgres.HsgtFlow, error)
	FundFlowRanks(ctx context.Context, period string, tradeDate time.Time) ([]postgres.FundFlowRank, error)
	News(ctx context.Context) ([]postgres.StockNews, error)
}

// Deps carries the shared collaborators every collector is built with.
type Deps struct {
	Store  Store
	Source Source
	Pacer  *pacing.Pacer
	Logger *zap.Logger

	RetryCount int
	RetryDelay time.Duration
}

// Result summarizes one collector run. Attempted counts units of work
// (symbols, indexes, feeds); a unit that exhausted its retries counts
// as failed but does not abort the run.
type Result struct {
	Task      string
	Attempted int
	Succeeded int
	Failed    int
	Rows      int
	Err       error
}

// Success is true when nothing failed outright and at least one unit
// succeeded, or when the run legitimately had zero work to do (e.g. a
// non-trading day).
func (r Result) Success() bool {
	if r.Err != nil {
		return false
	}
	if r.Attempted == 0 {
		return true
	}
	return r.Succeeded > 0
}

// Details renders the tallies for the completion notification.
func (r Result) Details() map[string]string {
	d := map[string]string{
		"attempted": strconv.Itoa(r.Attempted),
		"succeeded": strconv.Itoa(r.Succeeded),
		"failed":    strconv.Itoa(r.Failed),
		"rows":      strconv.Itoa(r.Rows),
	}
	if r.Err != nil {
		d["error"] = r.Err.Error()
	}
	return d
}

// fetch wraps one source call with the configured retry policy.
func fetch[T any](ctx context.Context, d Deps, fn func(ctx context.Context) (T, error)) (T, error) {
	return pacing.Retry(ctx, d.RetryCount, d.RetryDelay, fn)
}

// gateTradingDay implements the daily-cadence guard: skip==true on a
// known non-trading day, ErrPrerequisiteMissing when the calendar has
// no row for the date at all.
func gateTradingDay(ctx context.Context, d Deps, day time.Time) (skip bool, err error) {
	trading, known, err := d.Store.IsTradingDay(ctx, day)
	if err != nil {
		return false, fmt.Errorf("trading day lookup: %w", err)
	}
	if !known {
		return false, fmt.Errorf("%w: no calendar row for %s", ErrPrerequisiteMissing, day.Format("2006-01-02"))
	}
	if !trading {
		d.Logger.Info("non-trading day, skipping run", zap.String("date", day.Format("2006-01-02")))
		return true, nil
	}
	return false, nil
}

// dateOnly truncates to a UTC calendar date so date comparisons and key
// formatting stay stable across zones.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
