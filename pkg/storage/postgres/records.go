package postgres

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateKeyLayout = "20060102"

// StockBasic is one tradable instrument in the symbol registry.
type StockBasic struct {
	ID uint `gorm:"primaryKey"`

	StockCode string `gorm:"type:varchar(10);not null;uniqueIndex:idx_stock_basic_code"`
	StockName string `gorm:"type:text;not null"`
	Status    string `gorm:"type:text"` // listing status, e.g. 退市 for delisted

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (StockBasic) TableName() string { return "stock_basic" }

func (r StockBasic) UniqueKey() string { return r.StockCode }

// DailyQuote is one symbol's end-of-day bar. Late corrections from the
// source overwrite the existing (stock_code, trade_date) row.
type DailyQuote struct {
	ID uint `gorm:"primaryKey"`

	StockCode string    `gorm:"type:varchar(10);not null;index:idx_daily_quote_code_date,unique"`
	TradeDate time.Time `gorm:"type:date;not null;index:idx_daily_quote_code_date,unique"`

	Open         decimal.Decimal `gorm:"type:numeric"`
	High         decimal.Decimal `gorm:"type:numeric"`
	Low          decimal.Decimal `gorm:"type:numeric"`
	Close        decimal.Decimal `gorm:"type:numeric"`
	Change       decimal.Decimal `gorm:"type:numeric"`
	PctChg       decimal.Decimal `gorm:"type:numeric"`
	Volume       int64           `gorm:"type:bigint"`
	Amount       decimal.Decimal `gorm:"type:numeric"`
	TurnoverRate decimal.Decimal `gorm:"type:numeric"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (DailyQuote) TableName() string { return "daily_quote" }

func (r DailyQuote) UniqueKey() string {
	return r.StockCode + "|" + r.TradeDate.Format(dateKeyLayout)
}

// IndexDaily is one market index's end-of-day bar.
type IndexDaily struct {
	ID uint `gorm:"primaryKey"`

	IndexCode string    `gorm:"type:varchar(10);not null;index:idx_index_daily_code_date,unique"`
	TradeDate time.Time `gorm:"type:date;not null;index:idx_index_daily_code_date,unique"`

	IndexName string          `gorm:"type:text"`
	Open      decimal.Decimal `gorm:"type:numeric"`
	High      decimal.Decimal `gorm:"type:numeric"`
	Low       decimal.Decimal `gorm:"type:numeric"`
	Close     decimal.Decimal `gorm:"type:numeric"`
	Change    decimal.Decimal `gorm:"type:numeric"`
	PctChg    decimal.Decimal `gorm:"type:numeric"`
	Volume    int64           `gorm:"type:bigint"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (IndexDaily) TableName() string { return "index_daily" }

func (r IndexDaily) UniqueKey() string {
	return r.IndexCode + "|" + r.TradeDate.Format(dateKeyLayout)
}

// TradeCalendar is one calendar date with its trading-session flag.
type TradeCalendar struct {
	ID uint `gorm:"primaryKey"`

	CalendarDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_trade_calendar_date"`
	IsTradeDay   bool      `gorm:"not null"`
	WeekDay      int       `gorm:"not null"` // 0 = Monday .. 6 = Sunday
	IsHoliday    bool      `gorm:"not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TradeCalendar) TableName() string { return "trade_calendar" }

func (r TradeCalendar) UniqueKey() string { return r.CalendarDate.Format(dateKeyLayout) }

// HotRank is one slot of the daily popularity ranking. Uniqueness is on
// (trade_date, rank_position), never on the symbol: two symbols must be
// able to hold adjacent slots on the same date.
type HotRank struct {
	ID uint `gorm:"primaryKey"`

	TradeDate    time.Time `gorm:"type:date;not null;index:idx_hot_rank_date_pos,unique"`
	RankPosition int       `gorm:"not null;index:idx_hot_rank_date_pos,unique"`

	StockCode string          `gorm:"type:varchar(10);not null"`
	StockName string          `gorm:"type:text"`
	Close     decimal.Decimal `gorm:"type:numeric"`
	PctChg    decimal.Decimal `gorm:"type:numeric"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (HotRank) TableName() string { return "hot_rank" }

func (r HotRank) UniqueKey() string {
	return fmt.Sprintf("%s|%d", r.TradeDate.Format(dateKeyLayout), r.RankPosition)
}

// RiseRank is one slot of the daily rising-popularity ranking, carrying
// the position delta against the previous day.
type RiseRank struct {
	ID uint `gorm:"primaryKey"`

	TradeDate    time.Time `gorm:"type:date;not null;index:idx_rise_rank_date_pos,unique"`
	RankPosition int       `gorm:"not null;index:idx_rise_rank_date_pos,unique"`

	StockCode  string `gorm:"type:varchar(10);not null"`
	StockName  string `gorm:"type:text"`
	RankChange int    `gorm:"not null"` // positions gained since yesterday

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (RiseRank) TableName() string { return "rise_rank" }

func (r RiseRank) UniqueKey() string {
	return fmt.Sprintf("%s|%d", r.TradeDate.Format(dateKeyLayout), r.RankPosition)
}

// HsgtFlow is one cross-border (Hu/Shen-Gang-Tong) fund-flow figure.
// Several independent flow rows share a trade date; the business key is
// the full (date, type, sector, direction) tuple.
type HsgtFlow struct {
	ID uint `gorm:"primaryKey"`

	TradeDate time.Time `gorm:"type:date;not null;index:idx_hsgt_flow_key,unique"`
	FlowType  string    `gorm:"type:text;not null;index:idx_hsgt_flow_key,unique"`  // 北向 / 南向
	Sector    string    `gorm:"type:text;not null;index:idx_hsgt_flow_key,unique"`  // 沪股通 / 深股通 / ...
	Direction string    `gorm:"type:text;not null;index:idx_hsgt_flow_key,unique"`  // 买入 / 卖出 / 净流入

	Amount decimal.Decimal `gorm:"type:numeric"` // in 亿元

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (HsgtFlow) TableName() string { return "hsgt_flow" }

func (r HsgtFlow) UniqueKey() string {
	return r.TradeDate.Format(dateKeyLayout) + "|" + r.FlowType + "|" + r.Sector + "|" + r.Direction
}

// FundFlowRank is one symbol's fund-flow ranking row for one indicator
// window (same-day, 3-day, 5-day or 10-day).
type FundFlowRank struct {
	ID uint `gorm:"primaryKey"`

	StockCode       string    `gorm:"type:varchar(10);not null;index:idx_fund_flow_rank_key,unique"`
	IndicatorPeriod string    `gorm:"type:varchar(10);not null;index:idx_fund_flow_rank_key,unique"` // 今日 / 3日 / 5日 / 10日
	TradeDate       time.Time `gorm:"type:date;not null;index:idx_fund_flow_rank_key,unique"`

	StockName     string          `gorm:"type:text"`
	RankPosition  int             `gorm:"not null"`
	MainNetInflow decimal.Decimal `gorm:"type:numeric"` // main-force net inflow, 元
	PctChg        decimal.Decimal `gorm:"type:numeric"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (FundFlowRank) TableName() string { return "fund_flow_rank" }

func (r FundFlowRank) UniqueKey() string {
	return r.StockCode + "|" + r.IndicatorPeriod + "|" + r.TradeDate.Format(dateKeyLayout)
}

// StockNews is one news item; the URL is its sole identity.
type StockNews struct {
	ID uint `gorm:"primaryKey"`

	URL string `gorm:"type:text;not null;uniqueIndex:idx_stock_news_url"`

	Title       string    `gorm:"type:text;not null"`
	Content     string    `gorm:"type:text"`
	Source      string    `gorm:"type:text"`
	PublishTime time.Time `gorm:"not null;index:idx_stock_news_publish_time"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (StockNews) TableName() string { return "stock_news" }

func (r StockNews) UniqueKey() string { return r.URL }
