package collector

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/pacing"
	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// fakeSource lets each test script the gateway's behavior per endpoint.
type fakeSource struct {
	stockBasics   func(ctx context.Context) ([]postgres.StockBasic, error)
	dailyQuotes   func(ctx context.Context, code string, start, end time.Time) ([]postgres.DailyQuote, error)
	indexDaily    func(ctx context.Context, code, name string) ([]postgres.IndexDaily, error)
	tradeDates    func(ctx context.Context) ([]time.Time, error)
	hotRanks      func(ctx context.Context, d time.Time) ([]postgres.HotRank, error)
	riseRanks     func(ctx context.Context, d time.Time) ([]postgres.RiseRank, error)
	hsgtFlows     func(ctx context.Context) ([]postgres.HsgtFlow, error)
	fundFlowRanks func(ctx context.Context, period string, d time.Time) ([]postgres.FundFlowRank, error)
	news          func(ctx context.Context) ([]postgres.StockNews, error)
}

func (f *fakeSource) StockBasics(ctx context.Context) ([]postgres.StockBasic, error) {
	if f.stockBasics == nil {
		return nil, nil
	}
	return f.stockBasics(ctx)
}

func (f *fakeSource) DailyQuotes(ctx context.Context, code string, start, end time.Time) ([]postgres.DailyQuote, error) {
	if f.dailyQuotes == nil {
		return nil, nil
	}
	return f.dailyQuotes(ctx, code, start, end)
}

func (f *fakeSource) IndexDaily(ctx context.Context, code, name string) ([]postgres.IndexDaily, error) {
	if f.indexDaily == nil {
		return nil, nil
	}
	return f.indexDaily(ctx, code, name)
}

func (f *fakeSource) TradeDates(ctx context.Context) ([]time.Time, error) {
	if f.tradeDates == nil {
		return nil, nil
	}
	return f.tradeDates(ctx)
}

func (f *fakeSource) HotRanks(ctx context.Context, d time.Time) ([]postgres.HotRank, error) {
	if f.hotRanks == nil {
		return nil, nil
	}
	return f.hotRanks(ctx, d)
}

func (f *fakeSource) RiseRanks(ctx context.Context, d time.Time) ([]postgres.RiseRank, error) {
	if f.riseRanks == nil {
		return nil, nil
	}
	return f.riseRanks(ctx, d)
}

func (f *fakeSource) HsgtFlows(ctx context.Context) ([]postgres.HsgtFlow, error) {
	if f.hsgtFlows == nil {
		return nil, nil
	}
	return f.hsgtFlows(ctx)
}

func (f *fakeSource) FundFlowRanks(ctx context.Context, period string, d time.Time) ([]postgres.FundFlowRank, error) {
	if f.fundFlowRanks == nil {
		return nil, nil
	}
	return f.fundFlowRanks(ctx, period, d)
}

func (f *fakeSource) News(ctx context.Context) ([]postgres.StockNews, error) {
	if f.news == nil {
		return nil, nil
	}
	return f.news(ctx)
}

func newTestDeps(store Store, source Source) Deps {
	return Deps{
		Store:      store,
		Source:     source,
		Pacer:      pacing.NewPacer(0, 0, 0, 0),
		Logger:     zap.NewNop(),
		RetryCount: 3,
		RetryDelay: time.Millisecond,
	}
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// seedCalendar marks the given dates as trading days and every other
// date between them as non-trading.
func seedCalendar(t *testing.T, store Store, tradingDays ...time.Time) {
	t.Helper()
	trading := make(map[string]bool)
	var first, last time.Time
	for i, d := range tradingDays {
		trading[d.Format("20060102")] = true
		if i == 0 || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	var rows []postgres.TradeCalendar
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		rows = append(rows, postgres.TradeCalendar{
			CalendarDate: d,
			IsTradeDay:   trading[d.Format("20060102")],
		})
	}
	if err := store.UpsertTradeCalendar(context.Background(), rows); err != nil {
		t.Fatalf("failed to seed calendar: %v", err)
	}
}

func seedSymbols(t *testing.T, store Store, codes ...string) {
	t.Helper()
	rows := make([]postgres.StockBasic, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, postgres.StockBasic{StockCode: code, StockName: "测试" + code})
	}
	if err := store.UpsertStockBasics(context.Background(), rows); err != nil {
		t.Fatalf("failed to seed symbols: %v", err)
	}
}
