package collector

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// Index names the market indexes tracked by default.
type Index struct {
	Code string
	Name string
}

// DefaultIndexes is the standing watch list of broad A-share indexes.
var DefaultIndexes = []Index{
	{Code: "sh000001", Name: "上证指数"},
	{Code: "sz399001", Name: "深证成指"},
	{Code: "sz399006", Name: "创业板指"},
	{Code: "sh000300", Name: "沪深300"},
	{Code: "sh000905", Name: "中证500"},
}

// IndexCollector pulls daily bars for a fixed list of market indexes.
type IndexCollector struct {
	deps    Deps
	Indexes []Index
}

func NewIndexCollector(deps Deps, indexes []Index) *IndexCollector {
	if len(indexes) == 0 {
		indexes = DefaultIndexes
	}
	return &IndexCollector{deps: deps, Indexes: indexes}
}

// CollectRange fetches each index's series, narrows it to [start, end],
// derives change/pct_chg from consecutive closes and upserts the rows.
// One index is one unit of work.
func (c *IndexCollector) CollectRange(ctx context.Context, start, end time.Time) Result {
	res := Result{Task: "index_daily"}
	log := c.deps.Logger
	start, end = dateOnly(start), dateOnly(end)

	for _, idx := range c.Indexes {
		if err := c.deps.Pacer.Wait(ctx); err != nil {
			res.Err = err
			return res
		}

		res.Attempted++
		rows, err := fetch(ctx, c.deps, func(ctx context.Context) ([]postgres.IndexDaily, error) {
			return c.deps.Source.IndexDaily(ctx, idx.Code, idx.Name)
		})
		if err != nil {
			log.Warn("skipping index after fetch failure",
				zap.String("index_code", idx.Code), zap.Error(err))
			res.Failed++
			continue
		}

		rows = filterAndDerive(rows, start, end)
		if len(rows) == 0 {
			// No sessions in the window; the unit still succeeded.
			res.Succeeded++
			continue
		}

		if err := c.deps.Store.UpsertIndexDailies(ctx, rows); err != nil {
			log.Error("failed to upsert index series",
				zap.String("index_code", idx.Code), zap.Error(err))
			res.Failed++
			continue
		}
		res.Succeeded++
		res.Rows += len(rows)
	}

	log.Info("index collection finished",
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed))
	return res
}

// filterAndDerive narrows a full index series to the window and fills
// change/pct_chg from consecutive closes within it. The window's first
// row keeps zero deltas since its prior close is out of range.
func filterAndDerive(rows []postgres.IndexDaily, start, end time.Time) []postgres.IndexDaily {
	out := rows[:0]
	for _, r := range rows {
		if r.TradeDate.Before(start) || r.TradeDate.After(end) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate.Before(out[j].TradeDate) })

	hundred := decimal.NewFromInt(100)
	for i := 1; i < len(out); i++ {
		prev := out[i-1].Close
		if prev.IsZero() {
			continue
		}
		out[i].Change = out[i].Close.Sub(prev)
		out[i].PctChg = out[i].Change.Div(prev).Mul(hundred).Round(4)
	}
	return out
}
