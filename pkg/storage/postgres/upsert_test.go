package postgres

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// go test -v --run TestDedupeKeepsLastSeen
func TestDedupeKeepsLastSeen(t *testing.T) {
	rows := []FundFlowRank{
		{StockCode: "600519", IndicatorPeriod: "今日", TradeDate: date(2024, 1, 10), RankPosition: 1},
		{StockCode: "000001", IndicatorPeriod: "今日", TradeDate: date(2024, 1, 10), RankPosition: 2},
		{StockCode: "600519", IndicatorPeriod: "今日", TradeDate: date(2024, 1, 10), RankPosition: 7},
	}

	deduped := DedupeByKey(rows)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 rows after dedup, got %d", len(deduped))
	}
	if deduped[0].StockCode != "600519" || deduped[0].RankPosition != 7 {
		t.Errorf("expected last-seen content for duplicated key, got %+v", deduped[0])
	}
	if deduped[1].StockCode != "000001" {
		t.Errorf("unexpected second row: %+v", deduped[1])
	}
}

// go test -v --run TestDedupeNoCollisions
func TestDedupeNoCollisions(t *testing.T) {
	rows := []StockNews{
		{URL: "https://example.com/a", Title: "a"},
		{URL: "https://example.com/b", Title: "b"},
	}
	if got := DedupeByKey(rows); len(got) != 2 {
		t.Errorf("expected untouched batch, got %d rows", len(got))
	}
}

// go test -v --run TestUpsertIdempotent
func TestUpsertIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	batch := []DailyQuote{
		{StockCode: "600519", TradeDate: date(2024, 1, 10), Close: decimal.NewFromInt(1700)},
		{StockCode: "600519", TradeDate: date(2024, 1, 11), Close: decimal.NewFromInt(1710)},
	}

	if err := store.UpsertDailyQuotes(ctx, batch); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := store.UpsertDailyQuotes(ctx, batch); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	quotes := store.AllQuotes()
	if len(quotes) != 2 {
		t.Fatalf("expected 2 rows after double upsert, got %d", len(quotes))
	}
	for i, q := range quotes {
		if !q.Close.Equal(batch[i].Close) {
			t.Errorf("row %d content drifted: %+v", i, q)
		}
	}
}

// go test -v --run TestUpsertReplacesExistingKey
func TestUpsertReplacesExistingKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := DailyQuote{StockCode: "000001", TradeDate: date(2024, 1, 10), Close: decimal.NewFromInt(10)}
	corrected := DailyQuote{StockCode: "000001", TradeDate: date(2024, 1, 10), Close: decimal.NewFromInt(11)}

	if err := store.UpsertDailyQuotes(ctx, []DailyQuote{first}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDailyQuotes(ctx, []DailyQuote{corrected}); err != nil {
		t.Fatal(err)
	}

	quotes := store.AllQuotes()
	if len(quotes) != 1 {
		t.Fatalf("expected key to be replaced, got %d rows", len(quotes))
	}
	if !quotes[0].Close.Equal(decimal.NewFromInt(11)) {
		t.Errorf("expected corrected close, got %s", quotes[0].Close)
	}
}

// go test -v --run TestRankingSlotsAreDistinctRows
func TestRankingSlotsAreDistinctRows(t *testing.T) {
	// Regression guard: an earlier schema keyed rankings on (date, symbol)
	// and silently dropped one of two symbols holding adjacent slots.
	store := NewMemoryStore()
	ctx := context.Background()

	rows := []HotRank{
		{TradeDate: date(2024, 1, 10), RankPosition: 1, StockCode: "600519"},
		{TradeDate: date(2024, 1, 10), RankPosition: 2, StockCode: "000001"},
	}
	if err := store.UpsertHotRanks(ctx, rows); err != nil {
		t.Fatal(err)
	}

	got := store.AllHotRanks()
	if len(got) != 2 {
		t.Fatalf("expected both ranking slots stored, got %d rows", len(got))
	}
	if got[0].StockCode == got[1].StockCode {
		t.Errorf("slots collapsed onto one symbol: %+v", got)
	}
}

// go test -v --run TestKeyInvariantUnderRandomCollisions
func TestKeyInvariantUnderRandomCollisions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	// Random batches drawn from a small key space so collisions are
	// guaranteed, both within a batch and across batches.
	type last struct {
		amount decimal.Decimal
	}
	want := make(map[string]last)

	for batch := 0; batch < 20; batch++ {
		var rows []HsgtFlow
		for i := 0; i < 50; i++ {
			row := HsgtFlow{
				TradeDate: date(2024, 1, 1+rng.Intn(3)),
				FlowType:  []string{"北向", "南向"}[rng.Intn(2)],
				Sector:    []string{"沪股通", "深股通"}[rng.Intn(2)],
				Direction: []string{"买入", "卖出", "净流入"}[rng.Intn(3)],
				Amount:    decimal.NewFromInt(int64(batch*1000 + i)),
			}
			rows = append(rows, row)
			want[row.UniqueKey()] = last{amount: row.Amount}
		}
		if err := store.UpsertHsgtFlows(ctx, rows); err != nil {
			t.Fatalf("batch %d failed: %v", batch, err)
		}
	}

	got := store.AllHsgtFlows()
	if len(got) != len(want) {
		t.Fatalf("expected exactly one row per key: want %d, got %d", len(want), len(got))
	}
	seen := make(map[string]bool)
	for _, row := range got {
		key := row.UniqueKey()
		if seen[key] {
			t.Fatalf("duplicate key stored: %s", key)
		}
		seen[key] = true
		if !row.Amount.Equal(want[key].amount) {
			t.Errorf("key %s: expected last-submitted amount %s, got %s",
				key, want[key].amount, row.Amount)
		}
	}
}

func quoteBatch(n int) []DailyQuote {
	rows := make([]DailyQuote, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, DailyQuote{
			StockCode: fmt.Sprintf("%06d", i),
			TradeDate: date(2024, 1, 10),
			Close:     decimal.NewFromInt(int64(i)),
		})
	}
	return rows
}

// go test -v --run TestWriteChunksSplitsAtBound
func TestWriteChunksSplitsAtBound(t *testing.T) {
	var sizes []int
	err := writeChunks(quoteBatch(2500), upsertChunkSize, func(chunk []DailyQuote) error {
		sizes = append(sizes, len(chunk))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sizes) != 3 || sizes[0] != 1000 || sizes[1] != 1000 || sizes[2] != 500 {
		t.Errorf("expected chunks of 1000/1000/500, got %v", sizes)
	}
}

// go test -v --run TestWriteChunksFailureDoesNotStopLaterChunks
func TestWriteChunksFailureDoesNotStopLaterChunks(t *testing.T) {
	written := make(map[string]DailyQuote)
	call := 0
	err := writeChunks(quoteBatch(2500), upsertChunkSize, func(chunk []DailyQuote) error {
		call++
		if call == 2 {
			return fmt.Errorf("connection reset")
		}
		for _, row := range chunk {
			written[row.UniqueKey()] = row
		}
		return nil
	})

	if err == nil {
		t.Fatal("a failed chunk must surface in the returned error")
	}
	if got, want := err.Error(), "upsert rows 1000..1999"; !strings.Contains(got, want) {
		t.Errorf("error should name the failed range %q, got %q", want, got)
	}
	// The first chunk stays committed and the third still runs.
	if len(written) != 1500 {
		t.Fatalf("expected 1500 rows from the surviving chunks, got %d", len(written))
	}
	for _, code := range []string{"000000", "002000"} {
		if _, ok := written[code+"|20240110"]; !ok {
			t.Errorf("row %s from a surviving chunk is missing", code)
		}
	}
	if _, ok := written["001500|20240110"]; ok {
		t.Error("rows from the failed chunk must not be reported as written")
	}
}

// go test -v --run TestWriteChunksDedupesBeforeSplitting
func TestWriteChunksDedupesBeforeSplitting(t *testing.T) {
	rows := quoteBatch(3)
	rows = append(rows, rows[0], rows[1], rows[2])

	var total int
	err := writeChunks(rows, 2, func(chunk []DailyQuote) error {
		total += len(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 rows after pre-chunk dedup, got %d", total)
	}
}

// go test -v --run TestUniqueKeyFormats
func TestUniqueKeyFormats(t *testing.T) {
	q := DailyQuote{StockCode: "600519", TradeDate: date(2024, 1, 2)}
	if q.UniqueKey() != "600519|20240102" {
		t.Errorf("unexpected quote key: %s", q.UniqueKey())
	}
	h := HotRank{TradeDate: date(2024, 1, 2), RankPosition: 3}
	if h.UniqueKey() != fmt.Sprintf("20240102|%d", 3) {
		t.Errorf("unexpected hot rank key: %s", h.UniqueKey())
	}
}
