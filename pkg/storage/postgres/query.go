package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StockCodes returns every registered symbol that is still listed.
func (c *Client) StockCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := c.DB.WithContext(ctx).
		Model(&StockBasic{}).
		Where("status IS NULL OR status = '' OR status <> ?", "退市").
		Order("stock_code").
		Pluck("stock_code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// LatestQuoteDate returns the newest stored trade date for one symbol.
// The second return is false when the symbol has no stored quotes yet.
func (c *Client) LatestQuoteDate(ctx context.Context, stockCode string) (time.Time, bool, error) {
	var row DailyQuote
	err := c.DB.WithContext(ctx).
		Where("stock_code = ?", stockCode).
		Order("trade_date DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return row.TradeDate, true, nil
}

// LatestIndexDate returns the newest stored trade date for one index.
func (c *Client) LatestIndexDate(ctx context.Context, indexCode string) (time.Time, bool, error) {
	var row IndexDaily
	err := c.DB.WithContext(ctx).
		Where("index_code = ?", indexCode).
		Order("trade_date DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return row.TradeDate, true, nil
}

// IsTradingDay looks a date up in the trading calendar. The second
// return is false when the calendar has no row for that date at all,
// which callers treat as a missing prerequisite.
func (c *Client) IsTradingDay(ctx context.Context, date time.Time) (bool, bool, error) {
	var row TradeCalendar
	err := c.DB.WithContext(ctx).
		Where("calendar_date = ?", date.Format("2006-01-02")).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return row.IsTradeDay, true, nil
}

// DeleteNewsBefore purges news items published before cutoff and
// reports how many rows went away. Retention cleanup is the only delete
// path in the system.
func (c *Client) DeleteNewsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := c.DB.WithContext(ctx).
		Where("publish_time < ?", cutoff).
		Delete(&StockNews{})
	return tx.RowsAffected, tx.Error
}

func (c *Client) CountNews(ctx context.Context) (int64, error) {
	var count int64
	err := c.DB.WithContext(ctx).Model(&StockNews{}).Count(&count).Error
	return count, err
}

// RecentNews lists stored news items newest-first.
func (c *Client) RecentNews(ctx context.Context, limit, offset int) ([]StockNews, error) {
	var rows []StockNews
	err := c.DB.WithContext(ctx).
		Order("publish_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}
