package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertChunkSize bounds how many rows go into one INSERT ... ON CONFLICT
// statement.
const upsertChunkSize = 1000

// Keyed is any dataset row exposing its logical uniqueness key.
type Keyed interface {
	UniqueKey() string
}

// DedupeByKey collapses rows sharing a logical key to a single row,
// keeping the last-seen row's content. The source occasionally emits
// duplicate rows within one batch, and ON CONFLICT rejects intra-batch
// key collisions, so this must run before every upsert.
func DedupeByKey[T Keyed](rows []T) []T {
	if len(rows) < 2 {
		return rows
	}

	out := make([]T, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		key := row.UniqueKey()
		if i, ok := seen[key]; ok {
			out[i] = row
			continue
		}
		seen[key] = len(out)
		out = append(out, row)
	}
	return out
}

// writeChunks dedupes rows, splits them into size-bounded chunks and
// hands each chunk to write. A failed chunk is recorded in the joined
// error but does not stop the remaining chunks: runs are idempotent, so
// the next one heals the gap.
func writeChunks[T Keyed](rows []T, size int, write func(chunk []T) error) error {
	rows = DedupeByKey(rows)
	if len(rows) == 0 {
		return nil
	}

	var errs []error
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		if err := write(rows[start:end]); err != nil {
			errs = append(errs, fmt.Errorf("upsert rows %d..%d: %w", start, end-1, err))
		}
	}

	return errors.Join(errs...)
}

// upsertChunked writes rows in bounded chunks; each chunk inserts new
// keys and overwrites all non-key columns of existing keys.
func upsertChunked[T Keyed](ctx context.Context, db *gorm.DB, rows []T, keyColumns []string) error {
	columns := make([]clause.Column, len(keyColumns))
	for i, name := range keyColumns {
		columns[i] = clause.Column{Name: name}
	}

	return writeChunks(rows, upsertChunkSize, func(chunk []T) error {
		return db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   columns,
			UpdateAll: true,
		}).Create(&chunk).Error
	})
}

func (c *Client) UpsertStockBasics(ctx context.Context, rows []StockBasic) error {
	return upsertChunked(ctx, c.DB, rows, []string{"stock_code"})
}

func (c *Client) UpsertDailyQuotes(ctx context.Context, rows []DailyQuote) error {
	return upsertChunked(ctx, c.DB, rows, []string{"stock_code", "trade_date"})
}

func (c *Client) UpsertIndexDailies(ctx context.Context, rows []IndexDaily) error {
	return upsertChunked(ctx, c.DB, rows, []string{"index_code", "trade_date"})
}

func (c *Client) UpsertTradeCalendar(ctx context.Context, rows []TradeCalendar) error {
	return upsertChunked(ctx, c.DB, rows, []string{"calendar_date"})
}

func (c *Client) UpsertHotRanks(ctx context.Context, rows []HotRank) error {
	return upsertChunked(ctx, c.DB, rows, []string{"trade_date", "rank_position"})
}

func (c *Client) UpsertRiseRanks(ctx context.Context, rows []RiseRank) error {
	return upsertChunked(ctx, c.DB, rows, []string{"trade_date", "rank_position"})
}

func (c *Client) UpsertHsgtFlows(ctx context.Context, rows []HsgtFlow) error {
	return upsertChunked(ctx, c.DB, rows, []string{"trade_date", "flow_type", "sector", "direction"})
}

func (c *Client) UpsertFundFlowRanks(ctx context.Context, rows []FundFlowRank) error {
	return upsertChunked(ctx, c.DB, rows, []string{"stock_code", "indicator_period", "trade_date"})
}

func (c *Client) UpsertNews(ctx context.Context, rows []StockNews) error {
	return upsertChunked(ctx, c.DB, rows, []string{"url"})
}
