package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// CalendarCollector maintains the trading calendar: one row per
// calendar date with a trading-session flag, covering the configured
// number of years back through the last published trading day.
type CalendarCollector struct {
	deps  Deps
	Years int
}

func NewCalendarCollector(deps Deps, years int) *CalendarCollector {
	return &CalendarCollector{deps: deps, Years: years}
}

func (c *CalendarCollector) Collect(ctx context.Context, now time.Time) Result {
	res := Result{Task: "trade_calendar", Attempted: 1}
	log := c.deps.Logger

	tradeDates, err := fetch(ctx, c.deps, func(ctx context.Context) ([]time.Time, error) {
		return c.deps.Source.TradeDates(ctx)
	})
	if err != nil {
		log.Error("failed to fetch trading calendar", zap.Error(err))
		res.Failed = 1
		return res
	}
	if len(tradeDates) == 0 {
		log.Warn("trading calendar came back empty")
		res.Failed = 1
		return res
	}

	rows := buildCalendar(tradeDates, now.Year()-c.Years)
	if err := c.deps.Store.UpsertTradeCalendar(ctx, rows); err != nil {
		log.Error("failed to upsert trading calendar", zap.Error(err))
		res.Failed = 1
		res.Err = err
		return res
	}

	res.Succeeded = 1
	res.Rows = len(rows)
	log.Info("trading calendar refreshed", zap.Int("rows", len(rows)))
	return res
}

// buildCalendar expands the published trading days into a continuous
// per-date table from startYear through the last published trading day.
// Dates not in the published set are non-trading; a non-trading weekday
// is a holiday.
func buildCalendar(tradeDates []time.Time, startYear int) []postgres.TradeCalendar {
	trading := make(map[string]bool, len(tradeDates))
	var last time.Time
	for _, d := range tradeDates {
		d = dateOnly(d)
		trading[d.Format("20060102")] = true
		if d.After(last) {
			last = d
		}
	}

	var rows []postgres.TradeCalendar
	for d := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC); !d.After(last); d = d.AddDate(0, 0, 1) {
		isTrade := trading[d.Format("20060102")]
		// time.Weekday starts at Sunday; store Monday=0..Sunday=6.
		weekday := (int(d.Weekday()) + 6) % 7
		rows = append(rows, postgres.TradeCalendar{
			CalendarDate: d,
			IsTradeDay:   isTrade,
			WeekDay:      weekday,
			IsHoliday:    !isTrade && weekday < 5,
		})
	}
	return rows
}
