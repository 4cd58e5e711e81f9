package postgres

import (
	"context"
	"sort"
	"sync"
	"time"
)

// table is an ordered map keyed by each row's logical key, mirroring a
// composite-unique-constrained table.
type table[T Keyed] struct {
	order []string
	rows  map[string]T
}

func newTable[T Keyed]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) upsert(rows []T) {
	for _, row := range rows {
		key := row.UniqueKey()
		if _, ok := t.rows[key]; !ok {
			t.order = append(t.order, key)
		}
		t.rows[key] = row
	}
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.rows[key])
	}
	return out
}

// MemoryStore is an in-memory stand-in for Client used by collector
// tests. It applies the same replace-by-key semantics as the real
// upsert writer.
type MemoryStore struct {
	mu sync.Mutex

	basics    *table[StockBasic]
	quotes    *table[DailyQuote]
	indexes   *table[IndexDaily]
	calendar  *table[TradeCalendar]
	hotRanks  *table[HotRank]
	riseRanks *table[RiseRank]
	flows     *table[HsgtFlow]
	flowRanks *table[FundFlowRank]
	news      *table[StockNews]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		basics:    newTable[StockBasic](),
		quotes:    newTable[DailyQuote](),
		indexes:   newTable[IndexDaily](),
		calendar:  newTable[TradeCalendar](),
		hotRanks:  newTable[HotRank](),
		riseRanks: newTable[RiseRank](),
		flows:     newTable[HsgtFlow](),
		flowRanks: newTable[FundFlowRank](),
		news:      newTable[StockNews](),
	}
}

func (m *MemoryStore) UpsertStockBasics(ctx context.Context, rows []StockBasic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.basics.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) UpsertDailyQuotes(ctx context.Context, rows []DailyQuote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) UpsertIndexDailies(ctx context.Context, rows []IndexDaily) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) UpsertTradeCalendar(ctx context.Context, rows []TradeCalendar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendar.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) UpsertHotRanks(ctx context.Context, rows []HotRank) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotRanks.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) UpsertRiseRanks(ctx context.Context, rows []RiseRank) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riseRanks.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) UpsertHsgtFlows(ctx context.Context, rows []HsgtFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) UpsertFundFlowRanks(ctx context.Context, rows []FundFlowRank) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flowRanks.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) UpsertNews(ctx context.Context, rows []StockNews) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.news.upsert(DedupeByKey(rows))
	return nil
}

func (m *MemoryStore) StockCodes(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var codes []string
	for _, row := range m.basics.all() {
		if row.Status != "退市" {
			codes = append(codes, row.StockCode)
		}
	}
	return codes, nil
}

func (m *MemoryStore) LatestQuoteDate(ctx context.Context, stockCode string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	found := false
	for _, row := range m.quotes.all() {
		if row.StockCode == stockCode && row.TradeDate.After(latest) {
			latest = row.TradeDate
			found = true
		}
	}
	return latest, found, nil
}

func (m *MemoryStore) LatestIndexDate(ctx context.Context, indexCode string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest time.Time
	found := false
	for _, row := range m.indexes.all() {
		if row.IndexCode == indexCode && row.TradeDate.After(latest) {
			latest = row.TradeDate
			found = true
		}
	}
	return latest, found, nil
}

func (m *MemoryStore) IsTradingDay(ctx context.Context, date time.Time) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := date.Format(dateKeyLayout)
	row, ok := m.calendar.rows[key]
	if !ok {
		return false, false, nil
	}
	return row.IsTradeDay, true, nil
}

func (m *MemoryStore) DeleteNewsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	kept := newTable[StockNews]()
	for _, row := range m.news.all() {
		if row.PublishTime.Before(cutoff) {
			deleted++
			continue
		}
		kept.upsert([]StockNews{row})
	}
	m.news = kept
	return deleted, nil
}

func (m *MemoryStore) CountNews(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.news.rows)), nil
}

// RecentNews lists stored news newest-first, matching the client's
// publish_time DESC ordering.
func (m *MemoryStore) RecentNews(ctx context.Context, limit, offset int) ([]StockNews, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.news.all()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishTime.After(all[j].PublishTime)
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Accessors below exist for test assertions only.

func (m *MemoryStore) AllQuotes() []DailyQuote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quotes.all()
}

func (m *MemoryStore) AllIndexDailies() []IndexDaily {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexes.all()
}

func (m *MemoryStore) AllStockBasics() []StockBasic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.basics.all()
}

func (m *MemoryStore) AllTradeCalendar() []TradeCalendar {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calendar.all()
}

func (m *MemoryStore) AllHotRanks() []HotRank {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hotRanks.all()
}

func (m *MemoryStore) AllRiseRanks() []RiseRank {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.riseRanks.all()
}

func (m *MemoryStore) AllHsgtFlows() []HsgtFlow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flows.all()
}

func (m *MemoryStore) AllFundFlowRanks() []FundFlowRank {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flowRanks.all()
}

func (m *MemoryStore) AllNews() []StockNews {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.news.all()
}
