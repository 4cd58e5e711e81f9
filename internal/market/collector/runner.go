package collector

import (
	"context"
	"time"
)

// Runner bundles the per-dataset collectors into the two composite
// flows the CLI and scheduler trigger: the daily run and the historical
// backfill. Collectors run sequentially; one collection flow at a time.
type Runner struct {
	Calendar *CalendarCollector
	Basic    *BasicCollector
	Quote    *QuoteCollector
	Index    *IndexCollector
	Hot      *HotRankCollector
	Rise     *RiseRankCollector
	Hsgt     *HsgtFlowCollector
	FundFlow *FundFlowRankCollector
	News     *NewsCollector
}

// Options are the collection windows and caps the runner's collectors
// are built with.
type Options struct {
	HistoryDays       int
	CalendarYears     int
	NewsMaxProcess    int
	NewsRetentionDays int
}

func NewRunner(deps Deps, opts Options) *Runner {
	return &Runner{
		Calendar: NewCalendarCollector(deps, opts.CalendarYears),
		Basic:    NewBasicCollector(deps),
		Quote:    NewQuoteCollector(deps, opts.HistoryDays),
		Index:    NewIndexCollector(deps, nil),
		Hot:      NewHotRankCollector(deps),
		Rise:     NewRiseRankCollector(deps),
		Hsgt:     NewHsgtFlowCollector(deps),
		FundFlow: NewFundFlowRankCollector(deps, nil),
		News:     NewNewsCollector(deps, opts.NewsMaxProcess, opts.NewsRetentionDays),
	}
}

// CollectToday is the full post-close daily run. The calendar refresh
// comes first since every daily-cadence collector gates on it; a failed
// prerequisite shows up as that collector's own failed result rather
// than aborting the sequence.
func (r *Runner) CollectToday(ctx context.Context, now time.Time) []Result {
	today := dateOnly(now)
	yesterday := today.AddDate(0, 0, -1)

	return []Result{
		r.Calendar.Collect(ctx, now),
		r.Basic.Collect(ctx),
		r.Index.CollectRange(ctx, yesterday, today),
		r.Quote.CollectLatest(ctx, today),
		r.Hot.Collect(ctx, today),
		r.Rise.Collect(ctx, today),
		r.Hsgt.Collect(ctx, today),
		r.FundFlow.Collect(ctx, today),
	}
}

// CollectHistory is the explicit backfill over [start, end]. The
// operator chose the range, so it does not gate on the trading
// calendar; it refreshes calendar and registry first so the quote
// backfill has symbols to walk.
func (r *Runner) CollectHistory(ctx context.Context, start, end time.Time) []Result {
	return []Result{
		r.Calendar.Collect(ctx, end),
		r.Basic.Collect(ctx),
		r.Index.CollectRange(ctx, start, end),
		r.Quote.CollectHistory(ctx, start, end),
	}
}

// Failed reports whether any result in the set failed.
func Failed(results []Result) bool {
	for _, res := range results {
		if !res.Success() {
			return true
		}
	}
	return false
}
