package collector

import (
	"context"
	"testing"
	"time"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// go test -v --run TestBuildCalendarFlags
func TestBuildCalendarFlags(t *testing.T) {
	// One trading week: Mon 2024-01-08 .. Fri 2024-01-12; the following
	// Monday is a published trading day too.
	tradeDates := []time.Time{
		day(2024, 1, 8), day(2024, 1, 9), day(2024, 1, 10),
		day(2024, 1, 11), day(2024, 1, 12), day(2024, 1, 15),
	}

	rows := buildCalendar(tradeDates, 2024)

	byDate := make(map[string]postgres.TradeCalendar)
	for _, r := range rows {
		byDate[r.CalendarDate.Format("20060102")] = r
	}

	if r := byDate["20240110"]; !r.IsTradeDay || r.IsHoliday {
		t.Errorf("2024-01-10 should be a plain trading day: %+v", r)
	}
	if r := byDate["20240113"]; r.IsTradeDay || r.IsHoliday {
		// Saturday: non-trading but not a holiday.
		t.Errorf("2024-01-13 should be a non-trading weekend: %+v", r)
	}
	if r := byDate["20240101"]; r.IsTradeDay || !r.IsHoliday {
		// New Year's Day falls on a Monday: a non-trading weekday.
		t.Errorf("2024-01-01 should be flagged a holiday: %+v", r)
	}
	if r := byDate["20240108"]; r.WeekDay != 0 {
		t.Errorf("Monday should map to weekday 0, got %d", r.WeekDay)
	}

	// The table stops at the last published trading day.
	if _, ok := byDate["20240116"]; ok {
		t.Error("calendar must not extend past the last published date")
	}
}

// go test -v --run TestCalendarCollectorRoundTrip
func TestCalendarCollectorRoundTrip(t *testing.T) {
	store := postgres.NewMemoryStore()
	now := day(2024, 1, 15)

	source := &fakeSource{
		tradeDates: func(ctx context.Context) ([]time.Time, error) {
			return []time.Time{day(2024, 1, 12), day(2024, 1, 15)}, nil
		},
	}

	res := NewCalendarCollector(newTestDeps(store, source), 0).Collect(context.Background(), now)
	if !res.Success() {
		t.Fatalf("run failed: %+v", res)
	}

	trading, known, err := store.IsTradingDay(context.Background(), day(2024, 1, 15))
	if err != nil || !known || !trading {
		t.Errorf("expected 2024-01-15 known trading day: trading=%v known=%v err=%v", trading, known, err)
	}
	trading, known, _ = store.IsTradingDay(context.Background(), day(2024, 1, 13))
	if !known || trading {
		t.Errorf("expected 2024-01-13 known non-trading day: trading=%v known=%v", trading, known)
	}
}

// go test -v --run TestCalendarEmptyFeedFails
func TestCalendarEmptyFeedFails(t *testing.T) {
	store := postgres.NewMemoryStore()
	source := &fakeSource{
		tradeDates: func(ctx context.Context) ([]time.Time, error) {
			return nil, nil
		},
	}

	res := NewCalendarCollector(newTestDeps(store, source), 5).Collect(context.Background(), day(2024, 1, 15))
	if res.Success() {
		t.Error("an empty calendar feed must fail the run")
	}
}
